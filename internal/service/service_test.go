package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/audiobook-library/internal/testutil"
	"github.com/iliyamo/audiobook-library/internal/utils"
)

var t0 = time.Date(2026, 1, 31, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store   *testutil.Store
	advance func(time.Duration)
	tokens  *utils.TokenCodec
	auth    *AuthService
	ent     *EntitlementService
	library *LibraryService
	catalog *CatalogService
	admin   *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore()
	now, advance := testutil.FixedClock(t0)
	clock := Clock(now)
	tokens := utils.NewTokenCodec("test-secret", time.Hour).WithClock(now)
	ent := NewEntitlementService(store.Subscriptions, store.Books, store.Events, clock, nil)
	return &fixture{
		store:   store,
		advance: advance,
		tokens:  tokens,
		auth: NewAuthService(store.Users, utils.NewPasswordHasher(bcrypt.MinCost), tokens,
			store.Revocations, store.Library, ent, clock),
		ent:     ent,
		library: NewLibraryService(store.Library, store.Books, clock),
		catalog: NewCatalogService(store.Books),
		admin:   NewAdminService(store.Books, store.Users, store.Subscriptions, clock),
	}
}

var ctx = context.Background()
