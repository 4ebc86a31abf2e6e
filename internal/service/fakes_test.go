package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/shipping"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

// fakeDB runs transactions inline; the fake repositories ignore it.
type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) pgx.Row       { return nil }
func (fakeDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults  { return nil }
func (d fakeDB) WithTx(_ context.Context, fn func(db.DB) error) error  { return fn(d) }

type fakeLocationRepo struct {
	wilayas  []model.Wilaya
	baladias []model.Baladia
	calls    int
}

func (r *fakeLocationRepo) WithDB(db.DB) repository.LocationRepository { return r }

func (r *fakeLocationRepo) ListWilayas(context.Context) ([]model.Wilaya, error) {
	r.calls++
	return r.wilayas, nil
}

func (r *fakeLocationRepo) ListBaladias(_ context.Context, wilayaID int) ([]model.Baladia, error) {
	r.calls++
	var out []model.Baladia
	for _, b := range r.baladias {
		if b.WilayaID == wilayaID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeLocationRepo) GetBaladia(_ context.Context, id int) (model.Baladia, error) {
	for _, b := range r.baladias {
		if b.ID == id {
			return b, nil
		}
	}
	return model.Baladia{}, apperr.BaladiaNotFoundErr
}

func (r *fakeLocationRepo) UpsertBaladias(_ context.Context, baladias []model.Baladia) error {
	for _, b := range baladias {
		i := slices.IndexFunc(r.baladias, func(x model.Baladia) bool { return x.ID == b.ID })
		if i >= 0 {
			r.baladias[i] = b
		} else {
			r.baladias = append(r.baladias, b)
		}
	}
	return nil
}

type fakeDeliveryPriceRepo struct {
	prices []model.DeliveryPrice
}

func (r *fakeDeliveryPriceRepo) WithDB(db.DB) repository.DeliveryPriceRepository { return r }

func (r *fakeDeliveryPriceRepo) FindPrices(_ context.Context, wilayaID int, baladiaID *int, t model.DeliveryType) ([]model.DeliveryPrice, error) {
	var out []model.DeliveryPrice
	for _, p := range r.prices {
		if p.WilayaID != wilayaID || p.Type != t {
			continue
		}
		if p.BaladiaID == nil || (baladiaID != nil && *p.BaladiaID == *baladiaID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeDeliveryPriceRepo) UpsertPrice(_ context.Context, price model.DeliveryPrice) error {
	r.prices = append(r.prices, price)
	return nil
}

func (r *fakeDeliveryPriceRepo) DeletePrice(context.Context, int, *int, model.DeliveryType) error {
	return nil
}

func (r *fakeDeliveryPriceRepo) ListPrices(context.Context, *int) ([]model.DeliveryPrice, error) {
	return r.prices, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo(products ...model.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
	for i := range products {
		r.products[products[i].ID] = &products[i]
	}
	return r
}

func (r *fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *fakeProductRepo) CreateProduct(_ context.Context, p model.Product) error {
	for _, existing := range r.products {
		if existing.SKU == p.SKU {
			return apperr.ProductSKUConflictErr
		}
	}
	r.products[p.ID] = &p
	return nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, p model.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return apperr.ProductNotFoundErr
	}
	r.products[p.ID] = &p
	return nil
}

func (r *fakeProductRepo) GetProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	return *p, nil
}

func (r *fakeProductRepo) GetProductsByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) GetProductBySKU(_ context.Context, sku string) (model.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return *p, nil
		}
	}
	return model.Product{}, apperr.ProductNotFoundErr
}

func (r *fakeProductRepo) ListProducts(_ context.Context, params repository.ListProductsParams) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if params.ActiveOnly && !p.Active {
			continue
		}
		if params.MaxStock != nil && p.Stock > *params.MaxStock {
			continue
		}
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b model.Product) int { return strings.Compare(a.SKU, b.SKU) })
	return out, nil
}

type fakeStockRepo struct {
	products  *fakeProductRepo
	movements []model.StockMovement
}

func (r *fakeStockRepo) WithDB(db.DB) repository.StockRepository { return r }

func (r *fakeStockRepo) ApplyMovement(_ context.Context, m model.StockMovement) (int, error) {
	p, ok := r.products.products[m.ProductID]
	if !ok {
		return 0, apperr.ProductNotFoundErr
	}
	if p.Stock+m.Delta < 0 {
		return 0, apperr.InsufficientStockErr
	}
	p.Stock += m.Delta
	r.movements = append(r.movements, m)
	return p.Stock, nil
}

func (r *fakeStockRepo) ListMovements(_ context.Context, productID uuid.UUID, _ int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]model.Order
}

func newFakeOrderRepo(orders ...model.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[uuid.UUID]model.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) WithDB(db.DB) repository.OrderRepository { return r }

func (r *fakeOrderRepo) CreateOrder(_ context.Context, o model.Order) error {
	if o.ExternalRef != nil {
		if exists, _ := r.ExternalRefExists(context.Background(), *o.ExternalRef); exists {
			return apperr.OrderExternalRefConflictErr
		}
	}
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) GetOrder(_ context.Context, id uuid.UUID) (model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return model.Order{}, apperr.OrderNotFoundErr
	}
	return o, nil
}

func (r *fakeOrderRepo) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (model.Order, error) {
	return r.GetOrder(ctx, id)
}

func (r *fakeOrderRepo) ListOrders(_ context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range r.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.Phone != nil && o.Phone != *filter.Phone {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) UpdateOrder(_ context.Context, o model.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus, updatedAt time.Time) error {
	o, ok := r.orders[id]
	if !ok {
		return apperr.OrderNotFoundErr
	}
	o.Status, o.UpdatedAt = status, updatedAt
	r.orders[id] = o
	return nil
}

func (r *fakeOrderRepo) SetShipment(_ context.Context, params repository.SetShipmentParams) error {
	o, ok := r.orders[params.OrderID]
	if !ok {
		return apperr.OrderNotFoundErr
	}
	o.Status = model.OrderStatusDispatched
	o.TrackingNumber = &params.TrackingNumber
	o.ShippingAccountID = &params.ShippingAccountID
	o.UpdatedAt = params.UpdatedAt
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) ExternalRefExists(_ context.Context, ref string) (bool, error) {
	for _, o := range r.orders {
		if o.ExternalRef != nil && *o.ExternalRef == ref {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) ListRecentByPhones(_ context.Context, phones []string, since time.Time) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.Status == model.OrderStatusCancelled || o.CreatedAt.Before(since) {
			continue
		}
		if slices.Contains(phones, o.Phone) || (o.Phone2 != nil && slices.Contains(phones, *o.Phone2)) {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeOutboxRepo struct {
	mu   sync.Mutex
	msgs []repository.CreateOutboxMsgParams
}

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, params)
	return nil
}

func (r *fakeOutboxRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func (r *fakeOutboxRepo) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Topic)
	}
	return out
}

type fakeShippingAccountRepo struct {
	accounts map[uuid.UUID]model.ShippingAccount
}

func newFakeShippingAccountRepo(accounts ...model.ShippingAccount) *fakeShippingAccountRepo {
	r := &fakeShippingAccountRepo{accounts: make(map[uuid.UUID]model.ShippingAccount)}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *fakeShippingAccountRepo) WithDB(db.DB) repository.ShippingAccountRepository { return r }

func (r *fakeShippingAccountRepo) CreateShippingAccount(_ context.Context, a model.ShippingAccount) error {
	for _, existing := range r.accounts {
		if existing.Name == a.Name {
			return apperr.ShippingAccountNameConflictErr
		}
	}
	r.accounts[a.ID] = a
	return nil
}

func (r *fakeShippingAccountRepo) UpdateShippingAccount(_ context.Context, a model.ShippingAccount) error {
	if _, ok := r.accounts[a.ID]; !ok {
		return apperr.ShippingAccountNotFoundErr
	}
	r.accounts[a.ID] = a
	return nil
}

func (r *fakeShippingAccountRepo) GetShippingAccount(_ context.Context, id uuid.UUID) (model.ShippingAccount, error) {
	a, ok := r.accounts[id]
	if !ok {
		return model.ShippingAccount{}, apperr.ShippingAccountNotFoundErr
	}
	return a, nil
}

func (r *fakeShippingAccountRepo) ListShippingAccounts(_ context.Context, enabledOnly bool) ([]model.ShippingAccount, error) {
	var out []model.ShippingAccount
	for _, a := range r.accounts {
		if enabledOnly && !a.Enabled {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeShippingAccountRepo) DeleteShippingAccount(_ context.Context, id uuid.UUID) error {
	delete(r.accounts, id)
	return nil
}

type fakeShipper struct {
	shipment shipping.Shipment
	err      error
	info     shipping.TrackingInfo
	calls    int
}

func (s *fakeShipper) Dispatch(context.Context, *uuid.UUID, shipping.ShipmentRequest) (shipping.Shipment, error) {
	s.calls++
	return s.shipment, s.err
}

func (s *fakeShipper) Track(context.Context, model.ShippingAccount, string) (shipping.TrackingInfo, error) {
	return s.info, s.err
}

type fakeUserRepo struct {
	users map[uuid.UUID]model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) WithDB(db.DB) repository.UserRepository { return r }

func (r *fakeUserRepo) CreateUser(_ context.Context, u model.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperr.UserEmailConflict
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id uuid.UUID) (model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return model.User{}, apperr.UserNotFoundErr
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, apperr.UserNotFoundErr
}

func (r *fakeUserRepo) ListUsers(context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) CountUsers(context.Context) (int, error) { return len(r.users), nil }

func (r *fakeUserRepo) SetUserRole(_ context.Context, id, roleID uuid.UUID, updatedAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return apperr.UserNotFoundErr
	}
	u.RoleID, u.UpdatedAt = roleID, updatedAt
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) SetUserActive(_ context.Context, id uuid.UUID, active bool, updatedAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return apperr.UserNotFoundErr
	}
	u.Active, u.UpdatedAt = active, updatedAt
	r.users[id] = u
	return nil
}

type fakeRoleRepo struct {
	roles map[uuid.UUID]model.Role
}

func newFakeRoleRepo(roles ...model.Role) *fakeRoleRepo {
	r := &fakeRoleRepo{roles: make(map[uuid.UUID]model.Role)}
	for _, role := range roles {
		r.roles[role.ID] = role
	}
	return r
}

func (r *fakeRoleRepo) WithDB(db.DB) repository.RoleRepository { return r }

func (r *fakeRoleRepo) CreateRole(_ context.Context, role model.Role) error {
	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return apperr.RoleNameConflictErr
		}
	}
	r.roles[role.ID] = role
	return nil
}

func (r *fakeRoleRepo) GetRole(_ context.Context, id uuid.UUID) (model.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return model.Role{}, apperr.RoleNotFoundErr
	}
	return role, nil
}

func (r *fakeRoleRepo) GetRoleByName(_ context.Context, name string) (model.Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return model.Role{}, apperr.RoleNotFoundErr
}

func (r *fakeRoleRepo) ListRoles(context.Context) ([]model.Role, error) {
	out := make([]model.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *fakeRoleRepo) SetRolePermissions(_ context.Context, id uuid.UUID, perms []auth.Permission) error {
	role, ok := r.roles[id]
	if !ok {
		return apperr.RoleNotFoundErr
	}
	role.Permissions = perms
	r.roles[id] = role
	return nil
}

type fakeSessionRepo struct {
	users    *fakeUserRepo
	roles    *fakeRoleRepo
	sessions map[uuid.UUID]model.Session
	touched  int
}

func newFakeSessionRepo(users *fakeUserRepo, roles *fakeRoleRepo) *fakeSessionRepo {
	return &fakeSessionRepo{users: users, roles: roles, sessions: make(map[uuid.UUID]model.Session)}
}

func (r *fakeSessionRepo) WithDB(db.DB) repository.SessionRepository { return r }

func (r *fakeSessionRepo) CreateSession(_ context.Context, s model.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) GetActiveSession(ctx context.Context, tokenHash string, now time.Time) (repository.ActiveSession, error) {
	for _, s := range r.sessions {
		if s.TokenHash != tokenHash || !s.ExpiresAt.After(now) {
			continue
		}
		u, err := r.users.GetUser(ctx, s.UserID)
		if err != nil {
			return repository.ActiveSession{}, apperr.UnauthenticatedErr
		}
		role, _ := r.roles.GetRole(ctx, u.RoleID)
		u.RoleName = role.Name
		return repository.ActiveSession{Session: s, User: u, Permissions: role.Permissions}, nil
	}
	return repository.ActiveSession{}, apperr.UnauthenticatedErr
}

func (r *fakeSessionRepo) TouchSession(_ context.Context, id uuid.UUID, seenAt time.Time) error {
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	s.LastSeenAt = seenAt
	r.sessions[id] = s
	r.touched++
	return nil
}

func (r *fakeSessionRepo) DeleteSession(_ context.Context, id uuid.UUID) error {
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteUserSessions(_ context.Context, userID uuid.UUID) error {
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) ListOnlineUsers(ctx context.Context, since time.Time) ([]model.OnlineUser, error) {
	byUser := make(map[uuid.UUID]*model.OnlineUser)
	for _, s := range r.sessions {
		if s.LastSeenAt.Before(since) {
			continue
		}
		ou, ok := byUser[s.UserID]
		if !ok {
			u, _ := r.users.GetUser(ctx, s.UserID)
			ou = &model.OnlineUser{UserID: u.ID, Name: u.Name, Email: u.Email}
			byUser[s.UserID] = ou
		}
		ou.Sessions++
		if s.LastSeenAt.After(ou.LastSeenAt) {
			ou.LastSeenAt = s.LastSeenAt
		}
	}
	out := make([]model.OnlineUser, 0, len(byUser))
	for _, ou := range byUser {
		out = append(out, *ou)
	}
	return out, nil
}
