package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Marketplace
	&Shop{},
	&Product{},
	&Order{},
	// Billing
	&WebhookEvent{},
}
