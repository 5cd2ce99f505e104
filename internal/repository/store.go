package repository

import "gorm.io/gorm"

// Store is the gorm-backed record store for runs and their rows.
type Store struct {
	*RunRepository
	*RowRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		RunRepository: NewRunRepository(db),
		RowRepository: NewRowRepository(db),
	}
}
