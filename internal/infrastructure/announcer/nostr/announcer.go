package nostrannouncer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	log "github.com/sirupsen/logrus"
)

const (
	hashtag        = "marketd"
	connectTimeout = 10 * time.Second
)

type announcer struct {
	privkey string
	pubkey  string
	relays  []string

	lock  sync.Mutex
	conns map[string]*nostr.Relay
}

// NewAnnouncer returns an announcer publishing a text note to every given
// relay. The private key can be either hex or nsec encoded, a new one is
// generated if empty.
func NewAnnouncer(relays []string, privkey string) (ports.Announcer, error) {
	if len(relays) <= 0 {
		return nil, fmt.Errorf("missing relays")
	}
	for _, url := range relays {
		if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
			return nil, fmt.Errorf("invalid relay url %s, must be ws:// or wss://", url)
		}
	}

	key, err := parsePrivateKey(privkey)
	if err != nil {
		return nil, err
	}
	pubkey, err := nostr.GetPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %s", err)
	}
	if npub, err := nip19.EncodePublicKey(pubkey); err == nil {
		log.Infof("announcing services on nostr as %s", npub)
	}

	return &announcer{
		privkey: key,
		pubkey:  pubkey,
		relays:  relays,
		conns:   make(map[string]*nostr.Relay),
	}, nil
}

// AnnounceService succeeds if the note reaches at least one relay.
func (a *announcer) AnnounceService(
	ctx context.Context, announcement ports.ServiceAnnouncement,
) error {
	event, err := a.newEvent(announcement)
	if err != nil {
		return err
	}

	failures := make([]string, 0)
	for _, url := range a.relays {
		if err := a.publish(ctx, url, *event); err != nil {
			log.WithError(err).Warnf("failed to publish note to relay %s", url)
			failures = append(failures, url)
		}
	}
	if len(failures) == len(a.relays) {
		return fmt.Errorf("failed to publish note to any relay")
	}

	log.Debugf(
		"announced service %s on %d relays (note %s)",
		announcement.Service.Address, len(a.relays)-len(failures), event.ID,
	)
	return nil
}

func (a *announcer) Close() {
	a.lock.Lock()
	defer a.lock.Unlock()

	for url, relay := range a.conns {
		if err := relay.Close(); err != nil {
			log.WithError(err).Debugf("failed to close connection with relay %s", url)
		}
		delete(a.conns, url)
	}
}

func (a *announcer) newEvent(announcement ports.ServiceAnnouncement) (*nostr.Event, error) {
	svc := announcement.Service
	tags := nostr.Tags{
		nostr.Tag{"t", hashtag},
		nostr.Tag{"marketplace", svc.Marketplace},
		nostr.Tag{"service", svc.Address},
		nostr.Tag{"asset", svc.Asset},
		nostr.Tag{"price", fmt.Sprintf("%d", svc.Price)},
	}
	if announcement.URI != "" {
		tags = append(tags, nostr.Tag{"r", announcement.URI})
	}

	event := &nostr.Event{
		PubKey:    a.pubkey,
		CreatedAt: nostr.Timestamp(svc.CreatedAt),
		Kind:      nostr.KindTextNote,
		Tags:      tags,
		Content:   formatAnnouncement(announcement),
	}
	if err := event.Sign(a.privkey); err != nil {
		return nil, fmt.Errorf("failed to sign note: %s", err)
	}
	return event, nil
}

func (a *announcer) publish(ctx context.Context, url string, event nostr.Event) error {
	relay, err := a.getRelay(ctx, url)
	if err != nil {
		return err
	}
	if err := relay.Publish(ctx, event); err != nil {
		a.dropRelay(url)
		return err
	}
	return nil
}

func (a *announcer) getRelay(ctx context.Context, url string) (*nostr.Relay, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if relay, ok := a.conns[url]; ok && relay.IsConnected() {
		return relay, nil
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	relay, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}
	a.conns[url] = relay
	return relay, nil
}

func (a *announcer) dropRelay(url string) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if relay, ok := a.conns[url]; ok {
		// nolint:all
		relay.Close()
		delete(a.conns, url)
	}
}

func parsePrivateKey(key string) (string, error) {
	if key == "" {
		return nostr.GeneratePrivateKey(), nil
	}
	if !strings.HasPrefix(key, "nsec") {
		return key, nil
	}
	prefix, value, err := nip19.Decode(key)
	if err != nil {
		return "", fmt.Errorf("invalid nsec private key: %s", err)
	}
	hexKey, ok := value.(string)
	if prefix != "nsec" || !ok {
		return "", fmt.Errorf("invalid nsec private key")
	}
	return hexKey, nil
}

func formatAnnouncement(a ports.ServiceAnnouncement) string {
	lines := []string{
		fmt.Sprintf("New service listed: %s", a.Name),
		fmt.Sprintf("Price: %d lamports", a.Service.Price),
	}
	if a.Hours != "" {
		lines = append(lines, fmt.Sprintf("Hours: %s", a.Hours))
	}
	if a.Terms != "" {
		lines = append(lines, fmt.Sprintf("Terms: %s", a.Terms))
	}
	if a.Service.IsSoulbound {
		lines = append(lines, "Soulbound: the receipt can't be resold")
	}
	if a.RoyaltyBps > 0 {
		lines = append(lines, fmt.Sprintf("Royalties: %d bps", a.RoyaltyBps))
	}
	lines = append(lines,
		fmt.Sprintf("Marketplace: %s", a.Marketplace.Address),
		fmt.Sprintf("Service: %s", a.Service.Address),
	)
	if a.URI != "" {
		lines = append(lines, a.URI)
	}
	return strings.Join(lines, "\n")
}
