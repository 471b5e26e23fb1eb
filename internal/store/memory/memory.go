// Package memory is the in-memory store used for development mode and
// tests. Behavior mirrors the postgres store, including half-open range
// queries and sentinel errors.
package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"kassenwerk/backend/internal/domain"
	"kassenwerk/backend/internal/store"
	"kassenwerk/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	roomsByID       map[string]domain.Room
	tablesByID      map[string]domain.Table
	productsByID    map[string]domain.Product
	tillsByID       map[string]domain.Till
	layoutsByID     map[string]domain.GridLayout
	transactions    []domain.Transaction
	settings        *domain.Settings
	closingsByID    map[string]domain.DailyClosing
	closingOrder    []string
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		roomsByID:       make(map[string]domain.Room),
		tablesByID:      make(map[string]domain.Table),
		productsByID:    make(map[string]domain.Product),
		tillsByID:       make(map[string]domain.Till),
		layoutsByID:     make(map[string]domain.GridLayout),
		closingsByID:    make(map[string]domain.DailyClosing),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_WAITER_PASSWORD;
// hardcoded dev defaults are used (with a warning) when unset. The
// in-memory store is never used when DATABASE_URL is set.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	waiterPwd := envOr("SEED_WAITER_PASSWORD", "waiter123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_WAITER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_WAITER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"waiter", waiterPwd, domain.RoleWaiter},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	rooms := []domain.Room{
		{ID: "room-gastraum", Name: "Gastraum", SortOrder: 1, CreatedAt: now},
		{ID: "room-terrasse", Name: "Terrasse", SortOrder: 2, CreatedAt: now},
	}
	for _, room := range rooms {
		s.roomsByID[room.ID] = room
	}

	tables := []domain.Table{
		{ID: "table-1", RoomID: "room-gastraum", Name: "Tisch 1", Seats: 4, PosX: 0, PosY: 0, CreatedAt: now},
		{ID: "table-2", RoomID: "room-gastraum", Name: "Tisch 2", Seats: 4, PosX: 1, PosY: 0, CreatedAt: now},
		{ID: "table-3", RoomID: "room-gastraum", Name: "Tisch 3", Seats: 6, PosX: 0, PosY: 1, CreatedAt: now},
		{ID: "table-10", RoomID: "room-terrasse", Name: "Terrasse 1", Seats: 2, PosX: 0, PosY: 0, CreatedAt: now},
		{ID: "table-11", RoomID: "room-terrasse", Name: "Terrasse 2", Seats: 2, PosX: 1, PosY: 0, CreatedAt: now},
	}
	for _, table := range tables {
		s.tablesByID[table.ID] = table
	}

	products := []domain.Product{
		{ID: "prod-helles", Name: "Helles 0.5l", Category: "drinks", Price: decimal.RequireFromString("4.20"), TaxRate: decimal.RequireFromString("0.19"), Color: "#f2c14e", Active: true, CreatedAt: now},
		{ID: "prod-radler", Name: "Radler 0.5l", Category: "drinks", Price: decimal.RequireFromString("4.20"), TaxRate: decimal.RequireFromString("0.19"), Color: "#f2c14e", Active: true, CreatedAt: now},
		{ID: "prod-spezi", Name: "Spezi 0.4l", Category: "drinks", Price: decimal.RequireFromString("3.60"), TaxRate: decimal.RequireFromString("0.19"), Color: "#7fb069", Active: true, CreatedAt: now},
		{ID: "prod-schnitzel", Name: "Schnitzel Wiener Art", Category: "food", Price: decimal.RequireFromString("18.90"), TaxRate: decimal.RequireFromString("0.07"), Color: "#d1495b", Active: true, CreatedAt: now},
		{ID: "prod-kaesespaetzle", Name: "Käsespätzle", Category: "food", Price: decimal.RequireFromString("13.50"), TaxRate: decimal.RequireFromString("0.07"), Color: "#d1495b", Active: true, CreatedAt: now},
		{ID: "prod-brezn", Name: "Brezn", Category: "food", Price: decimal.RequireFromString("2.10"), TaxRate: decimal.RequireFromString("0.07"), Color: "#edae49", Active: true, CreatedAt: now},
		{ID: "prod-espresso", Name: "Espresso", Category: "drinks", Price: decimal.RequireFromString("2.40"), TaxRate: decimal.RequireFromString("0.19"), Color: "#30323d", Active: true, CreatedAt: now},
	}
	for _, product := range products {
		s.productsByID[product.ID] = product
	}

	tills := []domain.Till{
		{ID: "till-1", Name: "Theke", Active: true, CreatedAt: now},
		{ID: "till-2", Name: "Terrasse", Active: true, CreatedAt: now},
	}
	for _, till := range tills {
		s.tillsByID[till.ID] = till
	}

	s.layoutsByID["layout-theke"] = domain.GridLayout{
		ID:     "layout-theke",
		TillID: "till-1",
		Name:   "Standard",
		Rows:   3,
		Cols:   4,
		Cells: []domain.GridCell{
			{Row: 0, Col: 0, ProductID: "prod-helles"},
			{Row: 0, Col: 1, ProductID: "prod-radler"},
			{Row: 0, Col: 2, ProductID: "prod-spezi"},
			{Row: 1, Col: 0, ProductID: "prod-schnitzel"},
			{Row: 1, Col: 1, ProductID: "prod-kaesespaetzle"},
			{Row: 2, Col: 0, ProductID: "prod-brezn"},
			{Row: 2, Col: 1, ProductID: "prod-espresso"},
		},
		UpdatedAt: now,
	}

	s.settings = &domain.Settings{
		TaxMode:            domain.TaxModeGross,
		AutoCloseEnabled:   true,
		AutoStartTime:      "08:00",
		BusinessDayEndTime: "04:00",
		UpdatedAt:          now,
	}

	s.usersByUsername = seedUsers()

	return s
}

func (s *Store) ListRooms(_ context.Context) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(s.roomsByID))
	for _, room := range s.roomsByID {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].SortOrder != rooms[j].SortOrder {
			return rooms[i].SortOrder < rooms[j].SortOrder
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

func (s *Store) GetRoom(_ context.Context, id string) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.roomsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &room, nil
}

func (s *Store) CreateRoom(_ context.Context, room domain.Room) (*domain.Room, error) {
	if strings.TrimSpace(room.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if room.ID == "" {
		room.ID = xid.New("room")
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.roomsByID[room.ID]; exists {
		return nil, store.ErrConflict
	}
	s.roomsByID[room.ID] = room
	return &room, nil
}

func (s *Store) UpdateRoom(_ context.Context, room domain.Room) (*domain.Room, error) {
	if strings.TrimSpace(room.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.roomsByID[room.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	room.CreatedAt = existing.CreatedAt
	s.roomsByID[room.ID] = room
	return &room, nil
}

func (s *Store) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roomsByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.roomsByID, id)
	// Tables cascade with their room, matching the postgres FK.
	for tableID, table := range s.tablesByID {
		if table.RoomID == id {
			delete(s.tablesByID, tableID)
		}
	}
	return nil
}

func (s *Store) ListTables(_ context.Context, roomID string) ([]domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := make([]domain.Table, 0, len(s.tablesByID))
	for _, table := range s.tablesByID {
		if roomID != "" && table.RoomID != roomID {
			continue
		}
		tables = append(tables, table)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}

func (s *Store) GetTable(_ context.Context, id string) (*domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.tablesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &table, nil
}

func (s *Store) CreateTable(_ context.Context, table domain.Table) (*domain.Table, error) {
	if strings.TrimSpace(table.Name) == "" || table.RoomID == "" || table.Seats < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roomsByID[table.RoomID]; !ok {
		return nil, store.ErrNotFound
	}
	if table.ID == "" {
		table.ID = xid.New("table")
	}
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now().UTC()
	}
	s.tablesByID[table.ID] = table
	return &table, nil
}

func (s *Store) UpdateTable(_ context.Context, table domain.Table) (*domain.Table, error) {
	if strings.TrimSpace(table.Name) == "" || table.RoomID == "" || table.Seats < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tablesByID[table.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if _, ok := s.roomsByID[table.RoomID]; !ok {
		return nil, store.ErrNotFound
	}
	table.CreatedAt = existing.CreatedAt
	s.tablesByID[table.ID] = table
	return &table, nil
}

func (s *Store) DeleteTable(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tablesByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.tablesByID, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, product := range s.productsByID {
		if !includeInactive && !product.Active {
			continue
		}
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Category != products[j].Category {
			return products[i].Category < products[j].Category
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.productsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.productsByID[product.ID]; exists {
		return nil, store.ErrConflict
	}
	s.productsByID[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.productsByID[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	s.productsByID[product.ID] = product
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.productsByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.productsByID, id)
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

func (s *Store) ListTills(_ context.Context) ([]domain.Till, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tills := make([]domain.Till, 0, len(s.tillsByID))
	for _, till := range s.tillsByID {
		tills = append(tills, till)
	}
	sort.Slice(tills, func(i, j int) bool { return tills[i].Name < tills[j].Name })
	return tills, nil
}

func (s *Store) GetTill(_ context.Context, id string) (*domain.Till, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	till, ok := s.tillsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &till, nil
}

func (s *Store) CreateTill(_ context.Context, till domain.Till) (*domain.Till, error) {
	if strings.TrimSpace(till.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if till.ID == "" {
		till.ID = xid.New("till")
	}
	if till.CreatedAt.IsZero() {
		till.CreatedAt = time.Now().UTC()
	}
	s.tillsByID[till.ID] = till
	return &till, nil
}

func (s *Store) UpdateTill(_ context.Context, till domain.Till) (*domain.Till, error) {
	if strings.TrimSpace(till.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tillsByID[till.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	till.CreatedAt = existing.CreatedAt
	s.tillsByID[till.ID] = till
	return &till, nil
}

func (s *Store) DeleteTill(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tillsByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.tillsByID, id)
	for layoutID, layout := range s.layoutsByID {
		if layout.TillID == id {
			delete(s.layoutsByID, layoutID)
		}
	}
	return nil
}

func (s *Store) ListGridLayouts(_ context.Context, tillID string) ([]domain.GridLayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layouts := make([]domain.GridLayout, 0, len(s.layoutsByID))
	for _, layout := range s.layoutsByID {
		if tillID != "" && layout.TillID != tillID {
			continue
		}
		layouts = append(layouts, layout)
	}
	sort.Slice(layouts, func(i, j int) bool { return layouts[i].Name < layouts[j].Name })
	return layouts, nil
}

func (s *Store) GetGridLayout(_ context.Context, id string) (*domain.GridLayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layout, ok := s.layoutsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &layout, nil
}

// SaveGridLayout upserts by (till, name): saving an existing grid
// replaces its cells, saving a new name creates a layout.
func (s *Store) SaveGridLayout(_ context.Context, layout domain.GridLayout) (*domain.GridLayout, error) {
	if layout.TillID == "" || strings.TrimSpace(layout.Name) == "" || layout.Rows < 1 || layout.Cols < 1 {
		return nil, store.ErrInvalidInput
	}
	for _, cell := range layout.Cells {
		if cell.Row < 0 || cell.Row >= layout.Rows || cell.Col < 0 || cell.Col >= layout.Cols {
			return nil, store.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tillsByID[layout.TillID]; !ok {
		return nil, store.ErrNotFound
	}

	if layout.ID == "" {
		for _, existing := range s.layoutsByID {
			if existing.TillID == layout.TillID && existing.Name == layout.Name {
				layout.ID = existing.ID
				break
			}
		}
	}
	if layout.ID == "" {
		layout.ID = xid.New("layout")
	}
	layout.UpdatedAt = time.Now().UTC()
	s.layoutsByID[layout.ID] = layout
	return &layout, nil
}

func (s *Store) DeleteGridLayout(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layoutsByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.layoutsByID, id)
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.PaymentMethod == "" || tx.TillID == "" {
		return nil, store.ErrInvalidInput
	}
	if tx.Total.IsNegative() || tx.Tax.IsNegative() || tx.Tip.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	s.transactions = append(s.transactions, tx)
	return &tx, nil
}

func (s *Store) ListTransactions(_ context.Context, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) FindTransactionsInRange(_ context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if !tx.CreatedAt.Before(from) && tx.CreatedAt.Before(to) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, store.ErrNotFound
	}
	settings := *s.settings
	return &settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, settings domain.Settings) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.UpdatedAt = time.Now().UTC()
	if s.settings != nil && settings.LastCloseAt == nil {
		settings.LastCloseAt = s.settings.LastCloseAt
	}
	s.settings = &settings
	saved := settings
	return &saved, nil
}

func (s *Store) SetLastCloseAt(_ context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		return store.ErrNotFound
	}
	closeAt := at
	s.settings.LastCloseAt = &closeAt
	s.settings.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) CreateDailyClosing(_ context.Context, closing domain.DailyClosing) (*domain.DailyClosing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if closing.ID == "" {
		closing.ID = xid.New("close")
	}
	if closing.ClosedAt.IsZero() {
		closing.ClosedAt = time.Now().UTC()
	}
	if _, exists := s.closingsByID[closing.ID]; exists {
		return nil, store.ErrConflict
	}
	s.closingsByID[closing.ID] = closing
	s.closingOrder = append(s.closingOrder, closing.ID)
	return &closing, nil
}

func (s *Store) GetDailyClosing(_ context.Context, id string) (*domain.DailyClosing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	closing, ok := s.closingsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &closing, nil
}

func (s *Store) ListDailyClosings(_ context.Context, limit int) ([]domain.DailyClosing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DailyClosing, 0, len(s.closingOrder))
	// Newest first.
	for i := len(s.closingOrder) - 1; i >= 0; i-- {
		out = append(out, s.closingsByID[s.closingOrder[i]])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	if strings.TrimSpace(user.Username) == "" || user.Password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrConflict
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	if password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) FindSystemUser(_ context.Context) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usernames := make([]string, 0, len(s.usersByUsername))
	for username := range s.usersByUsername {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	for _, username := range usernames {
		user := s.usersByUsername[username]
		if user.Active && user.Role == domain.RoleAdmin {
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}
