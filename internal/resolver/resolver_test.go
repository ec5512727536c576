package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ehsankolivand/telegramExtractor/internal/telegram"
)

func TestParseLink_Public(t *testing.T) {
	l, err := ParseLink("https://t.me/gophers/123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Kind != KindPublic {
		t.Errorf("kind = %d", l.Kind)
	}
	if l.Slug != "gophers" {
		t.Errorf("slug = %q", l.Slug)
	}
	if l.MessageID != 123 {
		t.Errorf("message id = %d", l.MessageID)
	}
}

func TestParseLink_PublicNoMessage(t *testing.T) {
	l, err := ParseLink("https://t.me/gophers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.MessageID != 0 {
		t.Errorf("message id = %d, want 0", l.MessageID)
	}
}

func TestParseLink_Invite(t *testing.T) {
	for _, raw := range []string{
		"https://t.me/+AbCdEf123",
		"https://t.me/joinchat/AbCdEf123",
	} {
		l, err := ParseLink(raw)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", raw, err)
		}
		if l.Kind != KindInvite {
			t.Errorf("%s: kind = %d, want invite", raw, l.Kind)
		}
		if l.InviteHash != "AbCdEf123" {
			t.Errorf("%s: hash = %q", raw, l.InviteHash)
		}
	}
}

func TestParseLink_Internal(t *testing.T) {
	l, err := ParseLink("https://t.me/c/123456/789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Kind != KindInternal {
		t.Errorf("kind = %d, want internal", l.Kind)
	}
}

func TestParseLink_Empty(t *testing.T) {
	if _, err := ParseLink("https://t.me/"); err == nil {
		t.Fatal("expected error for empty path")
	}
}

// fakeAPI implements telegram.API for resolver tests.
type fakeAPI struct {
	chat *telegram.Chat
	msgs map[int64]*telegram.Message
}

func (f *fakeAPI) ResolveChat(_ context.Context, slug string) (*telegram.Chat, error) {
	if f.chat == nil || f.chat.Slug != slug {
		return nil, fmt.Errorf("no such chat %q", slug)
	}
	return f.chat, nil
}

func (f *fakeAPI) GetMessage(_ context.Context, _, msgID int64) (*telegram.Message, error) {
	m, ok := f.msgs[msgID]
	if !ok {
		return nil, fmt.Errorf("no such message %d", msgID)
	}
	return m, nil
}

func (f *fakeAPI) History(context.Context, int64, int64, int64, int) ([]telegram.Message, error) {
	return nil, nil
}

func (f *fakeAPI) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("not supported")
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolve_TopicFromReplyHeader(t *testing.T) {
	api := &fakeAPI{
		chat: &telegram.Chat{ID: 100, Slug: "gophers", HasTopics: true},
		msgs: map[int64]*telegram.Message{
			123: {ID: 123, ReplyTo: &telegram.ReplyHeader{MessageID: 120, TopicID: 42}},
		},
	}

	topic, err := Resolve(context.Background(), api, "https://t.me/gophers/123", 0, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topic.RootID != 42 {
		t.Errorf("root = %d, want 42", topic.RootID)
	}
}

func TestResolve_LinkedMessageIsRoot(t *testing.T) {
	api := &fakeAPI{
		chat: &telegram.Chat{ID: 100, Slug: "gophers", HasTopics: true},
		msgs: map[int64]*telegram.Message{
			42: {ID: 42},
		},
	}

	topic, err := Resolve(context.Background(), api, "https://t.me/gophers/42", 0, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topic.RootID != 42 {
		t.Errorf("root = %d, want 42", topic.RootID)
	}
}

func TestResolve_NoTopicStructure(t *testing.T) {
	api := &fakeAPI{
		chat: &telegram.Chat{ID: 100, Slug: "gophers", HasTopics: false},
		msgs: map[int64]*telegram.Message{
			42: {ID: 42},
		},
	}

	topic, err := Resolve(context.Background(), api, "https://t.me/gophers/42", 0, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topic.RootID != 0 {
		t.Errorf("root = %d, want 0 (whole chat)", topic.RootID)
	}
}

func TestResolve_ForceRootSkipsFetch(t *testing.T) {
	api := &fakeAPI{
		chat: &telegram.Chat{ID: 100, Slug: "gophers", HasTopics: true},
		// no messages: forced root must not fetch
	}

	topic, err := Resolve(context.Background(), api, "https://t.me/gophers/999", 77, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topic.RootID != 77 {
		t.Errorf("root = %d, want 77", topic.RootID)
	}
}

func TestResolve_InviteRejected(t *testing.T) {
	if _, err := Resolve(context.Background(), &fakeAPI{}, "https://t.me/+AbC", 0, discard()); err == nil {
		t.Fatal("expected error for invite link")
	}
}

func TestResolve_InternalRejected(t *testing.T) {
	if _, err := Resolve(context.Background(), &fakeAPI{}, "https://t.me/c/1/2", 0, discard()); err == nil {
		t.Fatal("expected error for internal link")
	}
}

func TestResolve_MissingMessageFatal(t *testing.T) {
	api := &fakeAPI{chat: &telegram.Chat{ID: 100, Slug: "gophers", HasTopics: true}}
	if _, err := Resolve(context.Background(), api, "https://t.me/gophers/404", 0, discard()); err == nil {
		t.Fatal("expected error for missing linked message")
	}
}
