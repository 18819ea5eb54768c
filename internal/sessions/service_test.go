package sessions

import (
	"context"
	"testing"
	"time"
)

// fake repo for testing
type fakeRepo struct {
	store map[string]*Session
}

func (f *fakeRepo) Create(ctx context.Context, s *Session) error {
	if f.store == nil {
		f.store = map[string]*Session{}
	}
	f.store[s.Token] = s
	return nil
}
func (f *fakeRepo) GetByToken(ctx context.Context, token string) (*Session, error) {
	if f.store == nil {
		return nil, nil
	}
	s, ok := f.store[token]
	if !ok {
		return nil, nil
	}
	return s, nil
}
func (f *fakeRepo) DeleteByToken(ctx context.Context, token string) error {
	delete(f.store, token)
	return nil
}
func (f *fakeRepo) DeleteByUser(ctx context.Context, userID string) error {
	for tok, s := range f.store {
		if s.UserID == userID {
			delete(f.store, tok)
		}
	}
	return nil
}

func TestCreateAndValidateSession(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	tok, err := svc.CreateSession(ctx, "u1", "alice@co.com", time.Hour)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected session token")
	}
	// validate
	sess, err := svc.Validate(ctx, tok)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if sess == nil || sess.UserID != "u1" {
		t.Fatalf("unexpected session: %v", sess)
	}
	// delete
	if err := svc.Delete(ctx, tok); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	sess2, _ := svc.Validate(ctx, tok)
	if sess2 != nil {
		t.Fatalf("expected session removed")
	}
}

func TestValidateExpiredSessionCleansUp(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	tok, err := svc.CreateSession(ctx, "u1", "alice@co.com", -time.Minute)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	sess, err := svc.Validate(ctx, tok)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if sess != nil {
		t.Fatalf("expired session must validate as missing")
	}
	if _, ok := repo.store[tok]; ok {
		t.Fatalf("expired session should have been deleted")
	}
}

func TestRevokeAllRemovesEverySession(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	t1, _ := svc.CreateSession(ctx, "u1", "alice@co.com", time.Hour)
	t2, _ := svc.CreateSession(ctx, "u1", "alice@co.com", time.Hour)
	t3, _ := svc.CreateSession(ctx, "u2", "bob@co.com", time.Hour)

	if err := svc.RevokeAll(ctx, "u1"); err != nil {
		t.Fatalf("revoke all failed: %v", err)
	}
	if s, _ := svc.Validate(ctx, t1); s != nil {
		t.Fatalf("session %s should be revoked", t1)
	}
	if s, _ := svc.Validate(ctx, t2); s != nil {
		t.Fatalf("session %s should be revoked", t2)
	}
	if s, _ := svc.Validate(ctx, t3); s == nil {
		t.Fatalf("other user's session must survive revoke-all")
	}
}
