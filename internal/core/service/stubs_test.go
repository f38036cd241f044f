package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
	"github.com/platformkit/identity/internal/pkg/credential"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// ── cache ────────────────────────────────────────────────────────────────────

type cacheItem struct {
	userID  int64
	expires time.Time
}

type stubCache struct {
	mu    sync.Mutex
	clock *fakeClock
	items map[string]cacheItem
	err   error
	reads int
}

func newStubCache(clock *fakeClock) *stubCache {
	return &stubCache{clock: clock, items: make(map[string]cacheItem)}
}

func (c *stubCache) SetEX(_ context.Context, key string, userID int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.items[key] = cacheItem{userID: userID, expires: c.clock.Now().Add(ttl)}
	return nil
}

func (c *stubCache) live(key string) (cacheItem, bool) {
	it, ok := c.items[key]
	if !ok {
		return cacheItem{}, false
	}
	if !c.clock.Now().Before(it.expires) {
		delete(c.items, key)
		return cacheItem{}, false
	}
	return it, true
}

func (c *stubCache) Get(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.err != nil {
		return 0, c.err
	}
	it, ok := c.live(key)
	if !ok {
		return 0, domain.ErrTokenNotFound
	}
	return it.userID, nil
}

func (c *stubCache) GetDel(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.err != nil {
		return 0, c.err
	}
	it, ok := c.live(key)
	if !ok {
		return 0, domain.ErrTokenNotFound
	}
	delete(c.items, key)
	return it.userID, nil
}

func (c *stubCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	delete(c.items, key)
	return nil
}

func (c *stubCache) Ping(context.Context) error { return c.err }

func (c *stubCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live(key)
	return ok
}

// ── relational store ────────────────────────────────────────────────────────

type userRoleKey struct{ user, role int64 }

type companyRoleKey struct{ user, company, role int64 }

type memState struct {
	nextID       int64
	users        map[int64]domain.User
	roles        map[domain.RoleCode]domain.Role
	companies    map[int64]domain.Company
	userRoles    map[userRoleKey]struct{}
	companyRoles map[companyRoleKey]struct{}
}

func newMemState() *memState {
	return &memState{
		users:        make(map[int64]domain.User),
		roles:        make(map[domain.RoleCode]domain.Role),
		companies:    make(map[int64]domain.Company),
		userRoles:    make(map[userRoleKey]struct{}),
		companyRoles: make(map[companyRoleKey]struct{}),
	}
}

func (m *memState) clone() *memState {
	c := newMemState()
	c.nextID = m.nextID
	for k, v := range m.users {
		c.users[k] = v
	}
	for k, v := range m.roles {
		c.roles[k] = v
	}
	for k, v := range m.companies {
		c.companies[k] = v
	}
	for k := range m.userRoles {
		c.userRoles[k] = struct{}{}
	}
	for k := range m.companyRoles {
		c.companyRoles[k] = struct{}{}
	}
	return c
}

func (m *memState) id() int64 {
	m.nextID++
	return m.nextID
}

// stubStore is an in-memory ports.Store. WithinTx snapshots the state and
// restores it when fn fails.
type stubStore struct {
	st    *memState
	clock *fakeClock
	txs   int
	// failGrantCompany makes GrantCompanyRole fail, to exercise rollback.
	failGrantCompany error
	// failDeleteUser makes Users().Delete fail.
	failDeleteUser error
}

func newStubStore(clock *fakeClock) *stubStore {
	return &stubStore{st: newMemState(), clock: clock}
}

func (s *stubStore) Users() ports.UserRepository        { return stubUsers{s} }
func (s *stubStore) Roles() ports.RoleRepository        { return stubRoles{s} }
func (s *stubStore) Companies() ports.CompanyRepository { return stubCompanies{s} }
func (s *stubStore) Ping(context.Context) error         { return nil }

func (s *stubStore) WithinTx(_ context.Context, fn func(tx ports.Repositories) error) error {
	s.txs++
	snap := s.st.clone()
	if err := fn(s); err != nil {
		s.st = snap
		return err
	}
	return nil
}

type stubUsers struct{ s *stubStore }

func (r stubUsers) Create(_ context.Context, u domain.NewUser) (*domain.User, error) {
	for _, existing := range r.s.st.users {
		if existing.Email == u.Email {
			return nil, &domain.UniqueViolation{Constraint: domain.ConstraintUsersEmail}
		}
		if existing.Username == u.Username {
			return nil, &domain.UniqueViolation{Constraint: domain.ConstraintUsersUsername}
		}
	}
	now := r.s.clock.Now()
	created := domain.User{
		ID:           r.s.st.id(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Confirmed:    u.Confirmed,
		UserType:     u.UserType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.st.users[created.ID] = created
	return &created, nil
}

func (r stubUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r stubUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.s.st.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r stubUsers) List(context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.s.st.users))
	for _, u := range r.s.st.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubUsers) Delete(_ context.Context, id int64) error {
	if r.s.failDeleteUser != nil {
		return r.s.failDeleteUser
	}
	if _, ok := r.s.st.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.st.users, id)
	return nil
}

func (r stubUsers) mutate(id int64, fn func(u *domain.User)) error {
	u, ok := r.s.st.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = r.s.clock.Now()
	r.s.st.users[id] = u
	return nil
}

func (r stubUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	return r.mutate(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (r stubUsers) Confirm(_ context.Context, id int64) error {
	return r.mutate(id, func(u *domain.User) { u.Confirmed = true })
}

func (r stubUsers) UpdateProfile(ctx context.Context, id int64, p domain.ProfileUpdate) (*domain.User, error) {
	err := r.mutate(id, func(u *domain.User) {
		if p.FirstName != nil {
			u.FirstName = p.FirstName
		}
		if p.LastName != nil {
			u.LastName = p.LastName
		}
		if p.Country != nil {
			u.Country = p.Country
		}
		if p.BirthDate != nil {
			u.BirthDate = p.BirthDate
		}
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r stubUsers) SetUserType(_ context.Context, id int64, t domain.UserType) error {
	return r.mutate(id, func(u *domain.User) { u.UserType = t })
}

type stubRoles struct{ s *stubStore }

func (r stubRoles) EnsureRole(_ context.Context, code domain.RoleCode) (*domain.Role, error) {
	if role, ok := r.s.st.roles[code]; ok {
		return &role, nil
	}
	role := domain.Role{ID: r.s.st.id(), Code: code, Name: code.String(), CreatedAt: r.s.clock.Now()}
	r.s.st.roles[code] = role
	return &role, nil
}

func (r stubRoles) GrantUserRole(_ context.Context, userID, roleID int64) error {
	r.s.st.userRoles[userRoleKey{userID, roleID}] = struct{}{}
	return nil
}

func (r stubRoles) RevokeUserRole(_ context.Context, userID, roleID int64) error {
	delete(r.s.st.userRoles, userRoleKey{userID, roleID})
	return nil
}

func (r stubRoles) GrantCompanyRole(_ context.Context, userID, companyID, roleID int64) error {
	if r.s.failGrantCompany != nil {
		return r.s.failGrantCompany
	}
	if _, ok := r.s.st.companies[companyID]; !ok {
		return domain.ErrCompanyNotFound
	}
	r.s.st.companyRoles[companyRoleKey{userID, companyID, roleID}] = struct{}{}
	return nil
}

func (r stubRoles) RevokeCompanyRoles(_ context.Context, userID, roleID int64) error {
	for k := range r.s.st.companyRoles {
		if k.user == userID && k.role == roleID {
			delete(r.s.st.companyRoles, k)
		}
	}
	return nil
}

func (r stubRoles) RevokeAllCompanyRoles(_ context.Context, userID int64) error {
	for k := range r.s.st.companyRoles {
		if k.user == userID {
			delete(r.s.st.companyRoles, k)
		}
	}
	return nil
}

func (r stubRoles) RevokeAll(_ context.Context, userID int64) error {
	for k := range r.s.st.userRoles {
		if k.user == userID {
			delete(r.s.st.userRoles, k)
		}
	}
	for k := range r.s.st.companyRoles {
		if k.user == userID {
			delete(r.s.st.companyRoles, k)
		}
	}
	return nil
}

func (r stubRoles) byID(id int64) (domain.Role, bool) {
	for _, role := range r.s.st.roles {
		if role.ID == id {
			return role, true
		}
	}
	return domain.Role{}, false
}

func (r stubRoles) RolesOf(_ context.Context, userID int64) ([]domain.Role, error) {
	var out []domain.Role
	for k := range r.s.st.userRoles {
		if k.user != userID {
			continue
		}
		if role, ok := r.byID(k.role); ok {
			out = append(out, role)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r stubRoles) CompanyRolesOf(_ context.Context, userID, companyID int64) ([]domain.Role, error) {
	var out []domain.Role
	for k := range r.s.st.companyRoles {
		if k.user != userID || k.company != companyID {
			continue
		}
		if role, ok := r.byID(k.role); ok {
			out = append(out, role)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type stubCompanies struct{ s *stubStore }

func (r stubCompanies) Create(_ context.Context, c domain.NewCompany) (*domain.Company, error) {
	for _, existing := range r.s.st.companies {
		if existing.Name == c.Name {
			return nil, &domain.UniqueViolation{Constraint: domain.ConstraintCompaniesName}
		}
	}
	now := r.s.clock.Now()
	created := domain.Company{
		ID:        r.s.st.id(),
		Name:      c.Name,
		Email:     c.Email,
		Website:   c.Website,
		Address:   c.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.st.companies[created.ID] = created
	return &created, nil
}

func (r stubCompanies) FindByID(_ context.Context, id int64) (*domain.Company, error) {
	c, ok := r.s.st.companies[id]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	return &c, nil
}

func (r stubCompanies) List(context.Context) ([]*domain.Company, error) {
	out := make([]*domain.Company, 0, len(r.s.st.companies))
	for _, c := range r.s.st.companies {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubCompanies) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.st.companies[id]; !ok {
		return domain.ErrCompanyNotFound
	}
	delete(r.s.st.companies, id)
	for k := range r.s.st.companyRoles {
		if k.company == id {
			delete(r.s.st.companyRoles, k)
		}
	}
	return nil
}

func (r stubCompanies) ListByUser(_ context.Context, userID int64) ([]domain.Company, error) {
	seen := make(map[int64]struct{})
	var out []domain.Company
	for k := range r.s.st.companyRoles {
		if k.user != userID {
			continue
		}
		if _, dup := seen[k.company]; dup {
			continue
		}
		seen[k.company] = struct{}{}
		out = append(out, r.s.st.companies[k.company])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── collaborators ───────────────────────────────────────────────────────────

type stubMailQueue struct {
	sent []ports.MailMessage
}

func (q *stubMailQueue) Enqueue(m ports.MailMessage) { q.sent = append(q.sent, m) }

func (q *stubMailQueue) last() ports.MailMessage {
	if len(q.sent) == 0 {
		return ports.MailMessage{}
	}
	return q.sent[len(q.sent)-1]
}

type stubGeo struct{ calls []string }

func (g *stubGeo) Describe(_ context.Context, ip string) string {
	g.calls = append(g.calls, ip)
	return ip + ", Minsk, BY at 01 March 2024, 12:00 UTC"
}

type stubAudit struct {
	events []domain.AuthEvent
	err    error
}

func (a *stubAudit) Record(_ context.Context, e domain.AuthEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, e)
	return nil
}

func (a *stubAudit) kinds() []string {
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Kind+":"+e.Outcome)
	}
	return out
}

func testHasher() *credential.Codec {
	return credential.New(credential.Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32})
}

var errBoom = errors.New("boom")

// ── fixture ─────────────────────────────────────────────────────────────────

type fixture struct {
	clock    *fakeClock
	cache    *stubCache
	store    *stubStore
	mail     *stubMailQueue
	geo      *stubGeo
	audit    *stubAudit
	sessions *SessionStore
	tokens   *TemporaryTokenStore
	ledger   *RoleLedger
	auth     *AuthService
	profile  *ProfileService
	admin    *AdminService
	gate     *Gate
}

func newFixture() *fixture {
	f := &fixture{clock: newFakeClock(), mail: &stubMailQueue{}, geo: &stubGeo{}, audit: &stubAudit{}}
	f.cache = newStubCache(f.clock)
	f.store = newStubStore(f.clock)
	f.sessions = NewSessionStore(f.cache)
	f.tokens = NewTemporaryTokenStore(f.cache)
	f.ledger = NewRoleLedger(f.store)
	hasher := testHasher()
	log := zerolog.Nop()
	f.auth = NewAuthService(AuthDeps{
		Store:    f.store,
		Sessions: f.sessions,
		Tokens:   f.tokens,
		Hasher:   hasher,
		Mail:     f.mail,
		Geo:      f.geo,
		Audit:    f.audit,
		Links:    Links{BaseURL: "http://localhost:8000/", DeepLinkScheme: "https", DeepLinkHost: "template.softteco.com.deep_link"},
		Log:      log,
		Now:      f.clock.Now,
	})
	f.profile = NewProfileService(f.store, f.ledger, hasher, f.audit, log)
	f.admin = NewAdminService(f.store, f.ledger, hasher, f.audit, log)
	f.gate = NewGate(f.sessions, f.store)
	return f
}

// seedUser creates a user directly in storage with the given roles.
func (f *fixture) seedUser(name string, t domain.UserType, confirmed bool, codes ...domain.RoleCode) *domain.User {
	ctx := context.Background()
	hash, _ := testHasher().Hash("Secret1")
	u, err := f.store.Users().Create(ctx, domain.NewUser{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: hash,
		Confirmed:    confirmed,
		UserType:     t,
	})
	if err != nil {
		panic(err)
	}
	if err := assignRoles(ctx, f.store, u.ID, codes); err != nil {
		panic(err)
	}
	return u
}

func (f *fixture) seedCompany(name string) *domain.Company {
	c, err := f.store.Companies().Create(context.Background(), domain.NewCompany{Name: name})
	if err != nil {
		panic(err)
	}
	return c
}

func roleCodes(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Code.String())
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
