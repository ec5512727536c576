// Package resolver turns a shareable t.me link into the chat and topic the
// export pipeline should walk.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/ehsankolivand/telegramExtractor/internal/telegram"
)

// LinkKind classifies a parsed t.me link.
type LinkKind int

const (
	KindPublic LinkKind = iota
	KindInvite
	KindInternal
)

// Link is the parsed form of a t.me URL.
type Link struct {
	Kind       LinkKind
	Slug       string // public username
	MessageID  int64  // 0 when the link has no message part
	InviteHash string
}

// Topic is the resolved export scope: a chat plus the topic root message id.
// A RootID of zero means the whole chat.
type Topic struct {
	Chat   *telegram.Chat
	RootID int64
}

// ParseLink parses the supported t.me URL shapes:
//
//	https://t.me/username
//	https://t.me/username/123
//	https://t.me/+INVITEHASH
//	https://t.me/joinchat/INVITEHASH
//	https://t.me/c/123456/789
func ParseLink(raw string) (*Link, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse link: %w", err)
	}

	var parts []string
	for _, p := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("link %q has no path", raw)
	}

	if strings.HasPrefix(parts[0], "+") || parts[0] == "joinchat" {
		l := &Link{Kind: KindInvite}
		if strings.HasPrefix(parts[0], "+") {
			l.InviteHash = parts[0][1:]
		} else if len(parts) > 1 {
			l.InviteHash = parts[1]
		}
		return l, nil
	}

	if parts[0] == "c" {
		return &Link{Kind: KindInternal}, nil
	}

	l := &Link{Kind: KindPublic, Slug: parts[0]}
	if len(parts) >= 2 {
		if id, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			l.MessageID = id
		}
	}
	return l, nil
}

// Resolve parses the link, resolves the chat, and determines the topic root.
// forceRoot above zero overrides detection. Any failure here is fatal to the
// run; nothing has been written yet.
func Resolve(ctx context.Context, api telegram.API, rawLink string, forceRoot int64, logger *slog.Logger) (*Topic, error) {
	link, err := ParseLink(rawLink)
	if err != nil {
		return nil, err
	}

	switch link.Kind {
	case KindInvite:
		return nil, fmt.Errorf("invite link detected: use a public username link like https://t.me/<username>/<msgid>")
	case KindInternal:
		return nil, fmt.Errorf("internal t.me/c/ link detected: use a public username link")
	}

	chat, err := api.ResolveChat(ctx, link.Slug)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", link.Slug, err)
	}

	if forceRoot > 0 {
		logger.Info("topic root forced", "chat", chat.Slug, "root", forceRoot)
		return &Topic{Chat: chat, RootID: forceRoot}, nil
	}

	if link.MessageID == 0 {
		return &Topic{Chat: chat}, nil
	}

	msg, err := api.GetMessage(ctx, chat.ID, link.MessageID)
	if err != nil {
		return nil, fmt.Errorf("fetch linked message %d: %w", link.MessageID, err)
	}

	root := topicRoot(chat, msg)
	if root == 0 {
		logger.Info("chat has no topic structure, exporting whole chat", "chat", chat.Slug)
	} else {
		logger.Info("topic resolved", "chat", chat.Slug, "root", root)
	}
	return &Topic{Chat: chat, RootID: root}, nil
}

// topicRoot inspects a message's thread metadata: a message inside a topic
// carries the root id in its reply header, while the root message itself has
// none and is its own root.
func topicRoot(chat *telegram.Chat, msg *telegram.Message) int64 {
	if msg.ReplyTo != nil && msg.ReplyTo.TopicID > 0 {
		return msg.ReplyTo.TopicID
	}
	if chat.HasTopics {
		return msg.ID
	}
	return 0
}
