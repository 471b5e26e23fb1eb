package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"kassenwerk/backend/internal/domain"
	"kassenwerk/backend/internal/store"
	"kassenwerk/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates missing tables on startup. Statements are
// idempotent so repeated starts are safe.
func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS tables (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			seats INTEGER NOT NULL DEFAULT 0,
			pos_x INTEGER NOT NULL DEFAULT 0,
			pos_y INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			tax_rate NUMERIC(6,4) NOT NULL DEFAULT 0,
			color TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS tills (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS grid_layouts (
			id TEXT PRIMARY KEY,
			till_id TEXT NOT NULL REFERENCES tills(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			grid_rows INTEGER NOT NULL,
			grid_cols INTEGER NOT NULL,
			cells JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (till_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			total NUMERIC(12,2) NOT NULL DEFAULT 0,
			tax NUMERIC(12,2) NOT NULL DEFAULT 0,
			tip NUMERIC(12,2) NOT NULL DEFAULT 0,
			payment_method TEXT NOT NULL,
			till_id TEXT NOT NULL,
			till_name TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			items JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions (created_at)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			tax_mode TEXT NOT NULL DEFAULT 'gross',
			auto_close_enabled BOOLEAN NOT NULL DEFAULT false,
			auto_start_time CHAR(5) NOT NULL DEFAULT '08:00',
			business_day_end_time CHAR(5) NOT NULL DEFAULT '04:00',
			last_close_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS daily_closings (
			id TEXT PRIMARY KEY,
			closed_at TIMESTAMPTZ NOT NULL,
			summary JSONB NOT NULL,
			user_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_closings_closed_at ON daily_closings (closed_at)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'waiter',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sort_order, created_at
		FROM rooms
		ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0, 8)
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.SortOrder, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *Store) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, sort_order, created_at
		FROM rooms
		WHERE id = $1
	`, id).Scan(&room.ID, &room.Name, &room.SortOrder, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (s *Store) CreateRoom(ctx context.Context, room domain.Room) (*domain.Room, error) {
	if strings.TrimSpace(room.Name) == "" {
		return nil, store.ErrInvalidInput
	}
	if room.ID == "" {
		room.ID = xid.New("room")
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, sort_order, created_at)
		VALUES ($1,$2,$3,$4)
	`, room.ID, room.Name, room.SortOrder, room.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &room, nil
}

func (s *Store) UpdateRoom(ctx context.Context, room domain.Room) (*domain.Room, error) {
	if strings.TrimSpace(room.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET name = $2, sort_order = $3 WHERE id = $1
	`, room.ID, room.Name, room.SortOrder)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetRoom(ctx, room.ID)
}

func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListTables(ctx context.Context, roomID string) ([]domain.Table, error) {
	query := `
		SELECT id, room_id, name, seats, pos_x, pos_y, created_at
		FROM tables
	`
	args := []any{}
	if roomID != "" {
		query += ` WHERE room_id = $1`
		args = append(args, roomID)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]domain.Table, 0, 16)
	for rows.Next() {
		var table domain.Table
		if err := rows.Scan(&table.ID, &table.RoomID, &table.Name, &table.Seats, &table.PosX, &table.PosY, &table.CreatedAt); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

func (s *Store) GetTable(ctx context.Context, id string) (*domain.Table, error) {
	var table domain.Table
	err := s.db.QueryRowContext(ctx, `
		SELECT id, room_id, name, seats, pos_x, pos_y, created_at
		FROM tables
		WHERE id = $1
	`, id).Scan(&table.ID, &table.RoomID, &table.Name, &table.Seats, &table.PosX, &table.PosY, &table.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &table, nil
}

func (s *Store) CreateTable(ctx context.Context, table domain.Table) (*domain.Table, error) {
	if strings.TrimSpace(table.Name) == "" || table.RoomID == "" || table.Seats < 0 {
		return nil, store.ErrInvalidInput
	}
	if table.ID == "" {
		table.ID = xid.New("table")
	}
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tables (id, room_id, name, seats, pos_x, pos_y, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, table.ID, table.RoomID, table.Name, table.Seats, table.PosX, table.PosY, table.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &table, nil
}

func (s *Store) UpdateTable(ctx context.Context, table domain.Table) (*domain.Table, error) {
	if strings.TrimSpace(table.Name) == "" || table.RoomID == "" || table.Seats < 0 {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tables SET room_id = $2, name = $3, seats = $4, pos_x = $5, pos_y = $6 WHERE id = $1
	`, table.ID, table.RoomID, table.Name, table.Seats, table.PosX, table.PosY)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetTable(ctx, table.ID)
}

func (s *Store) DeleteTable(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	query := `
		SELECT id, name, category, price, tax_rate, color, active, created_at
		FROM products
	`
	if !includeInactive {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY category, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.TaxRate, &p.Color, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, price, tax_rate, color, active, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.TaxRate, &p.Color, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price, tax_rate, color, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, product.ID, product.Name, product.Category, product.Price, product.TaxRate, product.Color, product.Active, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, price = $4, tax_rate = $5, color = $6, active = $7
		WHERE id = $1
	`, product.ID, product.Name, product.Category, product.Price, product.TaxRate, product.Color, product.Active)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func validateProduct(product domain.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return store.ErrInvalidInput
	}
	if product.Price.IsNegative() {
		return store.ErrInvalidInput
	}
	if product.TaxRate.IsNegative() || product.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return store.ErrInvalidInput
	}
	return nil
}

func (s *Store) ListTills(ctx context.Context) ([]domain.Till, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, active, created_at
		FROM tills
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tills := make([]domain.Till, 0, 8)
	for rows.Next() {
		var till domain.Till
		if err := rows.Scan(&till.ID, &till.Name, &till.Active, &till.CreatedAt); err != nil {
			return nil, err
		}
		tills = append(tills, till)
	}
	return tills, rows.Err()
}

func (s *Store) GetTill(ctx context.Context, id string) (*domain.Till, error) {
	var till domain.Till
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, active, created_at FROM tills WHERE id = $1
	`, id).Scan(&till.ID, &till.Name, &till.Active, &till.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &till, nil
}

func (s *Store) CreateTill(ctx context.Context, till domain.Till) (*domain.Till, error) {
	if strings.TrimSpace(till.Name) == "" {
		return nil, store.ErrInvalidInput
	}
	if till.ID == "" {
		till.ID = xid.New("till")
	}
	if till.CreatedAt.IsZero() {
		till.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tills (id, name, active, created_at) VALUES ($1,$2,$3,$4)
	`, till.ID, till.Name, till.Active, till.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &till, nil
}

func (s *Store) UpdateTill(ctx context.Context, till domain.Till) (*domain.Till, error) {
	if strings.TrimSpace(till.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tills SET name = $2, active = $3 WHERE id = $1
	`, till.ID, till.Name, till.Active)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetTill(ctx, till.ID)
}

func (s *Store) DeleteTill(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tills WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListGridLayouts(ctx context.Context, tillID string) ([]domain.GridLayout, error) {
	query := `
		SELECT id, till_id, name, grid_rows, grid_cols, cells, updated_at
		FROM grid_layouts
	`
	args := []any{}
	if tillID != "" {
		query += ` WHERE till_id = $1`
		args = append(args, tillID)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	layouts := make([]domain.GridLayout, 0, 8)
	for rows.Next() {
		layout, err := scanGridLayout(rows.Scan)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, *layout)
	}
	return layouts, rows.Err()
}

func (s *Store) GetGridLayout(ctx context.Context, id string) (*domain.GridLayout, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, till_id, name, grid_rows, grid_cols, cells, updated_at
		FROM grid_layouts
		WHERE id = $1
	`, id)
	layout, err := scanGridLayout(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return layout, nil
}

func scanGridLayout(scan func(...any) error) (*domain.GridLayout, error) {
	var layout domain.GridLayout
	var cells []byte
	if err := scan(&layout.ID, &layout.TillID, &layout.Name, &layout.Rows, &layout.Cols, &cells, &layout.UpdatedAt); err != nil {
		return nil, err
	}
	if len(cells) > 0 {
		if err := json.Unmarshal(cells, &layout.Cells); err != nil {
			return nil, fmt.Errorf("decode layout cells: %w", err)
		}
	}
	return &layout, nil
}

func (s *Store) SaveGridLayout(ctx context.Context, layout domain.GridLayout) (*domain.GridLayout, error) {
	if layout.TillID == "" || strings.TrimSpace(layout.Name) == "" || layout.Rows < 1 || layout.Cols < 1 {
		return nil, store.ErrInvalidInput
	}
	for _, cell := range layout.Cells {
		if cell.Row < 0 || cell.Row >= layout.Rows || cell.Col < 0 || cell.Col >= layout.Cols {
			return nil, store.ErrInvalidInput
		}
	}
	if layout.ID == "" {
		layout.ID = xid.New("layout")
	}
	layout.UpdatedAt = time.Now().UTC()

	cells, err := json.Marshal(layout.Cells)
	if err != nil {
		return nil, err
	}

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO grid_layouts (id, till_id, name, grid_rows, grid_cols, cells, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (till_id, name) DO UPDATE
		SET grid_rows = EXCLUDED.grid_rows,
			grid_cols = EXCLUDED.grid_cols,
			cells = EXCLUDED.cells,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, layout.ID, layout.TillID, layout.Name, layout.Rows, layout.Cols, cells, layout.UpdatedAt).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	layout.ID = id
	return &layout, nil
}

func (s *Store) DeleteGridLayout(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grid_layouts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.PaymentMethod == "" || tx.TillID == "" {
		return nil, store.ErrInvalidInput
	}
	if tx.Total.IsNegative() || tx.Tax.IsNegative() || tx.Tip.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	items, err := json.Marshal(tx.Items)
	if err != nil {
		return nil, store.ErrInvalidInput
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, created_at, total, tax, tip, payment_method, till_id, till_name, user_id, items)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, tx.ID, tx.CreatedAt, tx.Total, tx.Tax, tx.Tip, tx.PaymentMethod, tx.TillID, tx.TillName, tx.UserID, items)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, total, tax, tip, payment_method, till_id, till_name, user_id, items
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (s *Store) FindTransactionsInRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, total, tax, tip, payment_method, till_id, till_name, user_id, items
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, 64)
	for rows.Next() {
		var tx domain.Transaction
		var items []byte
		if err := rows.Scan(&tx.ID, &tx.CreatedAt, &tx.Total, &tx.Tax, &tx.Tip, &tx.PaymentMethod, &tx.TillID, &tx.TillName, &tx.UserID, &items); err != nil {
			return nil, err
		}
		// Raw JSONB bytes; report.NormalizeItems decodes on demand.
		if len(items) > 0 {
			tx.Items = items
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	var lastCloseAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT tax_mode, auto_close_enabled, auto_start_time, business_day_end_time, last_close_at, updated_at
		FROM settings
		WHERE id = 1
	`).Scan(&settings.TaxMode, &settings.AutoCloseEnabled, &settings.AutoStartTime, &settings.BusinessDayEndTime, &lastCloseAt, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	settings.AutoStartTime = strings.TrimSpace(settings.AutoStartTime)
	settings.BusinessDayEndTime = strings.TrimSpace(settings.BusinessDayEndTime)
	if lastCloseAt.Valid {
		settings.LastCloseAt = &lastCloseAt.Time
	}
	return &settings, nil
}

func (s *Store) UpdateSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error) {
	settings.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, tax_mode, auto_close_enabled, auto_start_time, business_day_end_time, updated_at)
		VALUES (1,$1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE
		SET tax_mode = EXCLUDED.tax_mode,
			auto_close_enabled = EXCLUDED.auto_close_enabled,
			auto_start_time = EXCLUDED.auto_start_time,
			business_day_end_time = EXCLUDED.business_day_end_time,
			updated_at = EXCLUDED.updated_at
	`, settings.TaxMode, settings.AutoCloseEnabled, settings.AutoStartTime, settings.BusinessDayEndTime, settings.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s.GetSettings(ctx)
}

func (s *Store) SetLastCloseAt(ctx context.Context, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE settings SET last_close_at = $1, updated_at = now() WHERE id = 1
	`, at)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateDailyClosing(ctx context.Context, closing domain.DailyClosing) (*domain.DailyClosing, error) {
	if closing.ID == "" {
		closing.ID = xid.New("close")
	}
	if closing.ClosedAt.IsZero() {
		closing.ClosedAt = time.Now().UTC()
	}

	summary, err := json.Marshal(closing.Summary)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_closings (id, closed_at, summary, user_id)
		VALUES ($1,$2,$3,$4)
	`, closing.ID, closing.ClosedAt, summary, closing.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &closing, nil
}

func (s *Store) GetDailyClosing(ctx context.Context, id string) (*domain.DailyClosing, error) {
	var closing domain.DailyClosing
	var summary []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, closed_at, summary, user_id FROM daily_closings WHERE id = $1
	`, id).Scan(&closing.ID, &closing.ClosedAt, &summary, &closing.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(summary, &closing.Summary); err != nil {
		return nil, fmt.Errorf("decode closing summary: %w", err)
	}
	return &closing, nil
}

func (s *Store) ListDailyClosings(ctx context.Context, limit int) ([]domain.DailyClosing, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, closed_at, summary, user_id
		FROM daily_closings
		ORDER BY closed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	closings := make([]domain.DailyClosing, 0, limit)
	for rows.Next() {
		var closing domain.DailyClosing
		var summary []byte
		if err := rows.Scan(&closing.ID, &closing.ClosedAt, &summary, &closing.UserID); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(summary, &closing.Summary); err != nil {
			return nil, fmt.Errorf("decode closing summary: %w", err)
		}
		closings = append(closings, closing)
	}
	return closings, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if strings.TrimSpace(user.Username) == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	if password == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindSystemUser(ctx context.Context) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		WHERE active = true AND role = $1
		ORDER BY username
		LIMIT 1
	`, domain.RoleAdmin).Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
