package models

// Tables returns every persisted model, parents first.
func Tables() []any {
	return []any{
		&User{},
		&UserProfile{},
		&Category{},
		&Product{},
		&ProductImage{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}
