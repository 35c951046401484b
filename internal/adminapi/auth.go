package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/talkincode/digistore/internal/app"
	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/pkg/common"
)

const sessionName = "digistore_session"

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func login(appCtx app.AppContext) echo.HandlerFunc {
	return func(c echo.Context) error {
		var payload loginPayload
		if err := c.Bind(&payload); err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login parameters", nil)
		}
		payload.Username = strings.TrimSpace(payload.Username)
		if payload.Username == "" || payload.Password == "" {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required", nil)
		}

		var opr domain.SysOpr
		err := GetDB(c).Where("username = ?", payload.Username).First(&opr).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		} else if err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operator", nil)
		}

		if bcrypt.CompareHashAndPassword([]byte(opr.Password), []byte(payload.Password)) != nil {
			return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		}
		if !strings.EqualFold(opr.Status, common.ENABLED) {
			return fail(c, http.StatusForbidden, "ACCOUNT_DISABLED", "Operator account is disabled", nil)
		}

		claims := jwt.MapClaims{
			"sub":   opr.Username,
			"uid":   opr.ID,
			"level": opr.Level,
			"exp":   time.Now().Add(12 * time.Hour).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(appCtx.Config().Web.JwtSecret))
		if err != nil {
			return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", nil)
		}

		if sess, err := session.Get(sessionName, c); err == nil {
			sess.Values["username"] = opr.Username
			sess.Values["level"] = opr.Level
			_ = sess.Save(c.Request(), c.Response())
		}

		GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", opr.ID).
			Updates(map[string]interface{}{"last_login": time.Now()})
		GetDB(c).Create(&domain.SysOprLog{
			ID:        common.UUIDint64(),
			OprName:   opr.Username,
			OptAction: "login",
			OptDesc:   "operator login",
			OptTime:   time.Now(),
		})
		zap.L().Info("operator login", zap.String("username", opr.Username))

		return ok(c, map[string]interface{}{
			"token":    signed,
			"username": opr.Username,
			"level":    opr.Level,
		})
	}
}
