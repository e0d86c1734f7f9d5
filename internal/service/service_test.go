package service

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groovoo/service-desk/internal/config"
	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/events"
	"github.com/groovoo/service-desk/internal/repository"
	"github.com/groovoo/service-desk/internal/repository/memory"
	"github.com/groovoo/service-desk/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
}

// Now advances one minute per call so creation order is strictly increasing.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type fixture struct {
	store      *memory.Store
	clock      *fakeClock
	dispatcher events.Dispatcher
	published  *[]events.Event
	uploadDir  string
	ticketDeps TicketDependencies
	tickets    *TicketService
	dashboard  *DashboardService
	exports    *ExportService
	auth       *AuthService
	alice      *domain.User
	bob        *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := newFakeClock()
	dispatcher := events.NewInMemoryDispatcher()

	published := &[]events.Event{}
	var mu sync.Mutex
	record := func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		*published = append(*published, e)
		return nil
	}
	for _, et := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketStatusChanged,
		events.EventTicketCommentAdded,
		events.EventTicketAttachmentAdded,
	} {
		dispatcher.Subscribe(et, record)
	}

	uploadDir := t.TempDir()
	blobs, err := storage.NewLocalStore(uploadDir)
	require.NoError(t, err)

	ticketDeps := TicketDependencies{
		TicketRepo:     store.Tickets(),
		CommentRepo:    store.Comments(),
		AttachmentRepo: store.Attachments(),
		HistoryRepo:    store.StatusChanges(),
		Transactor:     store.Transactor(),
		Blobs:          blobs,
		AllowList:      storage.NewAllowList(storage.DefaultAllowedExtensions),
		Dispatcher:     dispatcher,
		Logger:         zap.NewNop(),
		Now:            clock.Now,
	}
	f := &fixture{
		store:      store,
		clock:      clock,
		dispatcher: dispatcher,
		published:  published,
		uploadDir:  uploadDir,
		ticketDeps: ticketDeps,
		tickets:    NewTicketService(ticketDeps),
		dashboard: NewDashboardService(store.Tickets()),
		exports:   NewExportService(store.Tickets(), clock.Now),
		auth: NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, AuthDependencies{
			UserRepo: store.Users(),
			Now:      clock.Now,
		}),
	}

	ctx := context.Background()
	alice, err := f.auth.Register(ctx, "alice", "pw-alice")
	require.NoError(t, err)
	bob, err := f.auth.Register(ctx, "bob", "pw-bob")
	require.NoError(t, err)
	f.alice, f.bob = alice.User, bob.User
	return f
}

func fieldsTitled(title string) TicketFields {
	return TicketFields{
		Title:         title,
		Description:   "Something broke",
		Priority:      "Medium",
		ClientName:    "ACME",
		ClientContact: "ops@acme.test",
		Channel:       "email",
		Category:      "Hardware",
	}
}

func ticketsOf(u *domain.User) repository.TicketFilter {
	return repository.TicketFilter{AssigneeID: u.ID}
}

func (f *fixture) create(t *testing.T, caller *domain.User, fields TicketFields) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), caller, CreateTicketInput{TicketFields: fields})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(*f.published))
	for _, e := range *f.published {
		out = append(out, e.Type)
	}
	return out
}

func upload(name, body string) UploadedFile {
	return UploadedFile{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func brokenUpload(name string) UploadedFile {
	return UploadedFile{
		Name: name,
		Open: func() (io.ReadCloser, error) { return nil, errors.New("connection reset") },
	}
}

// failingCommit runs the unit of work and then refuses to commit it.
type failingCommit struct {
	inner repository.Transactor
}

var errCommitRefused = errors.New("commit refused")

func (c failingCommit) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return c.inner.WithinTx(ctx, func(tx repository.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errCommitRefused
	})
}

func (f *fixture) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
