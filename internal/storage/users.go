package storage

import (
	"context"
	"fmt"
)

// CreateUser validates and inserts a user.
func (s *Storage) CreateUser(ctx context.Context, u *User) error {
	if err := ValidateUser(u); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser returns the user with the given id.
func (s *Storage) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindMonitorOwner returns the user that owns the given monitor.
func (s *Storage) FindMonitorOwner(ctx context.Context, monitorID int64) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).
		Joins("JOIN monitors ON monitors.user_id = users.id").
		Where("monitors.id = ?", monitorID).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
