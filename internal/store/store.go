package store

import (
	"context"
	"errors"
	"time"

	"kassenwerk/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

type Repository interface {
	ListRooms(ctx context.Context) ([]domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	CreateRoom(ctx context.Context, room domain.Room) (*domain.Room, error)
	UpdateRoom(ctx context.Context, room domain.Room) (*domain.Room, error)
	DeleteRoom(ctx context.Context, id string) error

	ListTables(ctx context.Context, roomID string) ([]domain.Table, error)
	GetTable(ctx context.Context, id string) (*domain.Table, error)
	CreateTable(ctx context.Context, table domain.Table) (*domain.Table, error)
	UpdateTable(ctx context.Context, table domain.Table) (*domain.Table, error)
	DeleteTable(ctx context.Context, id string) error

	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListTills(ctx context.Context) ([]domain.Till, error)
	GetTill(ctx context.Context, id string) (*domain.Till, error)
	CreateTill(ctx context.Context, till domain.Till) (*domain.Till, error)
	UpdateTill(ctx context.Context, till domain.Till) (*domain.Till, error)
	DeleteTill(ctx context.Context, id string) error

	ListGridLayouts(ctx context.Context, tillID string) ([]domain.GridLayout, error)
	GetGridLayout(ctx context.Context, id string) (*domain.GridLayout, error)
	SaveGridLayout(ctx context.Context, layout domain.GridLayout) (*domain.GridLayout, error)
	DeleteGridLayout(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)
	FindTransactionsInRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error)

	GetSettings(ctx context.Context) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error)
	SetLastCloseAt(ctx context.Context, at time.Time) error

	CreateDailyClosing(ctx context.Context, closing domain.DailyClosing) (*domain.DailyClosing, error)
	GetDailyClosing(ctx context.Context, id string) (*domain.DailyClosing, error)
	ListDailyClosings(ctx context.Context, limit int) ([]domain.DailyClosing, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
	// FindSystemUser resolves the identity attributed to automatic
	// closings: the first active admin account.
	FindSystemUser(ctx context.Context) (*domain.UserAccount, error)
}
