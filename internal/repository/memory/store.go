// Package memory holds in-memory repository implementations. They back the service when no
// database is configured and serve as the fakes in service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/repository"
)

// tables holds the ticket-side rows. A transaction works on a private clone and swaps it in
// on commit.
type tables struct {
	tickets       map[string]domain.Ticket
	comments      map[string][]domain.Comment
	attachments   map[string]domain.Attachment
	statusChanges map[string][]domain.StatusChange
}

func newTables() *tables {
	return &tables{
		tickets:       make(map[string]domain.Ticket),
		comments:      make(map[string][]domain.Comment),
		attachments:   make(map[string]domain.Attachment),
		statusChanges: make(map[string][]domain.StatusChange),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for id, ticket := range t.tickets {
		c.tickets[id] = ticket
	}
	for id, comments := range t.comments {
		c.comments[id] = append([]domain.Comment(nil), comments...)
	}
	for id, attachment := range t.attachments {
		c.attachments[id] = attachment
	}
	for id, changes := range t.statusChanges {
		c.statusChanges[id] = append([]domain.StatusChange(nil), changes...)
	}
	return c
}

// Store is the shared state behind every repository in this package.
type Store struct {
	lock  sync.RWMutex
	users map[string]domain.User
	data  *tables

	// writeLock serializes ticket-side writers, transactional or not.
	writeLock sync.Mutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]domain.User),
		data:  newTables(),
	}
}

// Tickets returns a TicketRepository view of the store.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepository{view{s: s}} }

// Comments returns a CommentRepository view of the store.
func (s *Store) Comments() repository.CommentRepository { return commentRepository{view{s: s}} }

// Attachments returns an AttachmentRepository view of the store.
func (s *Store) Attachments() repository.AttachmentRepository {
	return attachmentRepository{view{s: s}}
}

// StatusChanges returns a StatusChangeRepository view of the store.
func (s *Store) StatusChanges() repository.StatusChangeRepository {
	return statusChangeRepository{view{s: s}}
}

// Users returns a UserRepository view of the store.
func (s *Store) Users() repository.UserRepository { return userRepository{s} }

// Transactor returns a Transactor whose units of work commit atomically into the store.
func (s *Store) Transactor() repository.Transactor { return transactor{s} }

type transactor struct{ s *Store }

// WithinTx runs fn against a clone of the ticket tables. The clone replaces the live tables
// only when fn succeeds. Calling a non-transactional writer from fn deadlocks.
func (t transactor) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.writeLock.Lock()
	defer t.s.writeLock.Unlock()

	t.s.lock.RLock()
	staged := t.s.data.clone()
	t.s.lock.RUnlock()

	if err := fn(memTx{view{s: t.s, tx: staged}}); err != nil {
		return err
	}

	t.s.lock.Lock()
	t.s.data = staged
	t.s.lock.Unlock()
	return nil
}

type memTx struct{ v view }

func (t memTx) Tickets() repository.TicketRepository             { return ticketRepository{t.v} }
func (t memTx) Comments() repository.CommentRepository           { return commentRepository{t.v} }
func (t memTx) Attachments() repository.AttachmentRepository     { return attachmentRepository{t.v} }
func (t memTx) StatusChanges() repository.StatusChangeRepository { return statusChangeRepository{t.v} }

// view routes a repository either to the live tables or to a transaction's staged clone.
// Staged tables are private to their transaction and need no locking.
type view struct {
	s  *Store
	tx *tables
}

func (v view) read(fn func(t *tables)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.s.lock.RLock()
	defer v.s.lock.RUnlock()
	fn(v.s.data)
}

func (v view) write(fn func(t *tables) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.writeLock.Lock()
	defer v.s.writeLock.Unlock()
	v.s.lock.Lock()
	defer v.s.lock.Unlock()
	return fn(v.s.data)
}

// stored tickets never carry loaded children
func stripChildren(t domain.Ticket) domain.Ticket {
	t.Comments = nil
	t.Attachments = nil
	t.History = nil
	return t
}

type ticketRepository struct{ v view }

func (r ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.v.write(func(t *tables) error {
		if _, exists := t.tickets[ticket.ID]; exists {
			return repository.ErrDuplicate
		}
		t.tickets[ticket.ID] = stripChildren(*ticket)
		return nil
	})
}

func (r ticketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	return r.v.write(func(t *tables) error {
		current, ok := t.tickets[ticket.ID]
		if !ok {
			return repository.ErrNotFound
		}
		current.Title = ticket.Title
		current.Description = ticket.Description
		current.Priority = ticket.Priority
		current.Tags = ticket.Tags
		current.Organizer = ticket.Organizer
		current.Event = ticket.Event
		current.Email = ticket.Email
		current.Phone = ticket.Phone
		current.ClientName = ticket.ClientName
		current.ClientContact = ticket.ClientContact
		current.Channel = ticket.Channel
		current.Category = ticket.Category
		t.tickets[ticket.ID] = current
		return nil
	})
}

func (r ticketRepository) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) error {
	return r.v.write(func(t *tables) error {
		current, ok := t.tickets[id]
		if !ok {
			return repository.ErrNotFound
		}
		current.Status = status
		t.tickets[id] = current
		return nil
	})
}

func (r ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var (
		ticket domain.Ticket
		ok     bool
	)
	r.v.read(func(t *tables) { ticket, ok = t.tickets[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

func (r ticketRepository) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	r.v.read(func(t *tables) {
		for _, ticket := range t.tickets {
			if filter.Matches(&ticket) {
				result = append(result, ticket)
			}
		}
	})
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.SortAscending {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if filter.SortAscending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	return result, nil
}

type commentRepository struct{ v view }

func (r commentRepository) Create(_ context.Context, comment *domain.Comment) error {
	return r.v.write(func(t *tables) error {
		if _, ok := t.tickets[comment.TicketID]; !ok {
			return repository.ErrNotFound
		}
		t.comments[comment.TicketID] = append(t.comments[comment.TicketID], *comment)
		return nil
	})
}

func (r commentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var result []domain.Comment
	r.v.read(func(t *tables) { result = append([]domain.Comment{}, t.comments[ticketID]...) })
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type attachmentRepository struct{ v view }

func (r attachmentRepository) Create(_ context.Context, attachment *domain.Attachment) error {
	return r.v.write(func(t *tables) error {
		if _, ok := t.tickets[attachment.TicketID]; !ok {
			return repository.ErrNotFound
		}
		if _, exists := t.attachments[attachment.ID]; exists {
			return repository.ErrDuplicate
		}
		t.attachments[attachment.ID] = *attachment
		return nil
	})
}

func (r attachmentRepository) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	var (
		attachment domain.Attachment
		ok         bool
	)
	r.v.read(func(t *tables) { attachment, ok = t.attachments[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &attachment, nil
}

func (r attachmentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	result := []domain.Attachment{}
	r.v.read(func(t *tables) {
		for _, attachment := range t.attachments {
			if attachment.TicketID == ticketID {
				result = append(result, attachment)
			}
		}
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].FileName != result[j].FileName {
			return result[i].FileName < result[j].FileName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type statusChangeRepository struct{ v view }

func (r statusChangeRepository) Create(_ context.Context, change *domain.StatusChange) error {
	return r.v.write(func(t *tables) error {
		t.statusChanges[change.TicketID] = append(t.statusChanges[change.TicketID], *change)
		return nil
	})
}

func (r statusChangeRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.StatusChange, error) {
	var result []domain.StatusChange
	r.v.read(func(t *tables) {
		result = append([]domain.StatusChange{}, t.statusChanges[ticketID]...)
	})
	return result, nil
}

type userRepository struct{ s *Store }

func (r userRepository) Create(_ context.Context, user *domain.User) error {
	r.s.lock.Lock()
	defer r.s.lock.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.lock.RLock()
	defer r.s.lock.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.lock.RLock()
	defer r.s.lock.RUnlock()
	for _, user := range r.s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}
