package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&ShopUser{},
	// Catalog
	&Category{},
	&Product{},
	// Checkout
	&CartItem{},
	&Order{},
	&OrderItem{},
	&OrderStatusLog{},
	&NotifyLog{},
}
