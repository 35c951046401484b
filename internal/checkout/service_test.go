package checkout

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/digistore/config"
	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/internal/payment"
	"github.com/talkincode/digistore/internal/store"
)

type fakeProber struct {
	err   error
	calls int
}

func (p *fakeProber) Probe(ctx context.Context, url string) error {
	p.calls++
	return p.err
}

type fakeGateway struct {
	lastReq payment.SessionRequest
	session *payment.Session
	err     error
}

func (g *fakeGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

func (g *fakeGateway) GetSession(ctx context.Context, id string) (*payment.Session, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) FindSessionByPaymentIntent(ctx context.Context, pi string) (*payment.Session, error) {
	return nil, nil
}

func (g *fakeGateway) VerifyEvent(payload []byte, sigHeader string) (*payment.Event, error) {
	return nil, errors.New("not implemented")
}

func setupServiceTest(t *testing.T, probeErr error) (*Service, *gorm.DB, *fakeGateway, *fakeProber) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	gateway := &fakeGateway{session: &payment.Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}}
	prober := &fakeProber{err: probeErr}
	svc := NewService(store.NewGormProductRepository(db), gateway, prober, config.StripeConfig{
		Currency:   "usd",
		SuccessURL: "https://shop.example.com/success",
		CancelURL:  "https://shop.example.com/cancel",
	})
	return svc, db, gateway, prober
}

func seedProduct(t *testing.T, db *gorm.DB, fileURL string) *domain.Product {
	t.Helper()
	p := &domain.Product{ID: 42, ShopID: 1, Name: "Lightroom Presets", Slug: "lightroom-presets",
		Description: "30 presets", Price: 12.50, FileURL: fileURL, Active: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestCreateSession_Success(t *testing.T) {
	svc, db, gateway, prober := setupServiceTest(t, nil)
	seedProduct(t, db, "https://cdn.example.com/presets.zip")

	url, err := svc.CreateSession(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_test_1", url)
	assert.Equal(t, 1, prober.calls)

	assert.Equal(t, "Lightroom Presets", gateway.lastReq.Name)
	assert.Equal(t, int64(1250), gateway.lastReq.AmountCents)
	assert.Equal(t, "usd", gateway.lastReq.Currency)
	assert.Equal(t, "42", gateway.lastReq.Metadata[MetadataProductKey])
}

func TestCreateSession_ProductNotFound(t *testing.T) {
	svc, _, _, _ := setupServiceTest(t, nil)

	_, err := svc.CreateSession(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateSession_NoFile(t *testing.T) {
	svc, db, _, prober := setupServiceTest(t, nil)
	seedProduct(t, db, "")

	_, err := svc.CreateSession(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoFileAvailable)
	assert.Zero(t, prober.calls)
}

func TestCreateSession_ProbeFailureClearsFileURL(t *testing.T) {
	svc, db, _, prober := setupServiceTest(t, errors.New("HEAD returned 404"))
	seedProduct(t, db, "https://cdn.example.com/gone.zip")

	_, err := svc.CreateSession(context.Background(), 42)
	assert.ErrorIs(t, err, ErrFileUnreachable)

	var p domain.Product
	require.NoError(t, db.First(&p, 42).Error)
	assert.Empty(t, p.FileURL)

	// file url is gone, so the next attempt fails fast even with a healthy probe
	prober.err = nil
	_, err = svc.CreateSession(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoFileAvailable)
	assert.Equal(t, 1, prober.calls)
}

func TestCreateSession_GatewayError(t *testing.T) {
	svc, db, gateway, _ := setupServiceTest(t, nil)
	seedProduct(t, db, "https://cdn.example.com/presets.zip")
	gateway.err = errors.New("stripe unavailable")

	_, err := svc.CreateSession(context.Background(), 42)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)
	assert.NotErrorIs(t, err, ErrNoFileAvailable)
	assert.NotErrorIs(t, err, ErrFileUnreachable)
}
