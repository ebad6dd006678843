package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/concoro/notifier/internal/clients/brevo"
	"github.com/concoro/notifier/internal/config"
	"github.com/concoro/notifier/internal/entities"
	"github.com/concoro/notifier/internal/logger"
	"github.com/concoro/notifier/internal/metrics"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/digest.html
var digestTemplates embed.FS

var digestTemplate = template.Must(template.New("digest").ParseFS(digestTemplates, "templates/digest.html"))

type userProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*entities.UserProfile, error)
}

type actionableNotificationReader interface {
	ListActionable(ctx context.Context, userID string, thresholds []int, limit int) ([]entities.Notification, error)
}

type emailLogRepository interface {
	LastNotificationEntry(ctx context.Context, userID string) (*entities.EmailLogEntry, error)
	Add(ctx context.Context, entry entities.EmailLogEntry) error
}

type concorsoReader interface {
	GetByID(ctx context.Context, id string) (*entities.Concorso, error)
}

type emailSender interface {
	IsConfigured() bool
	SendEmail(ctx context.Context, email brevo.Email) (string, error)
}

type digestItem struct {
	Title    string
	Ente     string
	Deadline string
	DaysLeft int
	URL      string
}

type digestData struct {
	UserName         string
	Urgent           []digestItem
	Soon             []digestItem
	Upcoming         []digestItem
	NotificationsURL string
}

// DigestMailer builds and sends one digest email per user summarizing the
// currently actionable notifications, subject to a resend cooldown.
type DigestMailer struct {
	users         userProfileRepository
	notifications actionableNotificationReader
	emailLog      emailLogRepository
	concorsi      concorsoReader
	sender        emailSender
	cfg           config.NotifierConfig
}

func NewDigestMailer(users userProfileRepository, notifications actionableNotificationReader,
	emailLog emailLogRepository, concorsi concorsoReader, sender emailSender, cfg config.NotifierConfig) *DigestMailer {

	return &DigestMailer{
		users:         users,
		notifications: notifications,
		emailLog:      emailLog,
		concorsi:      concorsi,
		sender:        sender,
		cfg:           cfg,
	}
}

// SendDigest reports whether an email was sent. The false cases without an
// error (no address on file, nothing actionable, cooldown active, provider
// not configured) are all normal outcomes of a batch run.
func (m *DigestMailer) SendDigest(ctx context.Context, userID string) (bool, error) {

	profile, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "failed to load user profile")
	}
	if profile == nil || profile.Email == "" {
		log.Warnf("user %v has no email on file, skipping digest", userID)
		metrics.EmailsSkippedCounter.WithLabelValues("no_email").Inc()
		return false, nil
	}

	notifications, err := m.notifications.ListActionable(ctx, userID, m.cfg.EmailableThresholds, m.cfg.EmailBatchLimit)
	if err != nil {
		return false, errors.Wrap(err, "failed to list actionable notifications")
	}
	if len(notifications) == 0 {
		return false, nil
	}

	enriched := m.enrich(ctx, notifications)
	if len(enriched) == 0 {
		return false, nil
	}

	lastEntry, err := m.emailLog.LastNotificationEntry(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "failed to read email log")
	}
	// Read-then-write: a concurrent send for the same user can pass this
	// check too and produce a second email. Accepted limitation.
	if lastEntry != nil && time.Since(lastEntry.SentAt) < m.cfg.EmailCooldown {
		log.Infof("digest for user %v sent %v ago, cooldown of %v still active",
			userID, time.Since(lastEntry.SentAt).Round(time.Minute), m.cfg.EmailCooldown)
		metrics.EmailsSkippedCounter.WithLabelValues("cooldown").Inc()
		return false, nil
	}

	if !m.sender.IsConfigured() {
		log.Warn("brevo api key is not configured, skipping digest send")
		metrics.EmailsSkippedCounter.WithLabelValues("not_configured").Inc()
		return false, nil
	}

	email, urgentCount, err := m.buildEmail(*profile, enriched)
	if err != nil {
		return false, err
	}

	if _, err = m.sender.SendEmail(ctx, email); err != nil {
		return false, errors.Wrap(err, "failed to send digest email")
	}
	metrics.EmailsSentCounter.Inc()

	err = m.emailLog.Add(ctx, entities.EmailLogEntry{
		UserID:            userID,
		Type:              entities.EmailLogTypeNotification,
		SentAt:            time.Now(),
		NotificationCount: len(enriched),
		UrgentCount:       urgentCount,
	})
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("digest sent but email log write failed for user %v: %v", userID, err)
	}

	log.Infof("digest sent to user %v with %v notifications", userID, len(enriched))
	return true, nil
}

type enrichedNotification struct {
	notification entities.Notification
	concorso     entities.Concorso
}

func (m *DigestMailer) enrich(ctx context.Context, notifications []entities.Notification) []enrichedNotification {

	enriched := make([]enrichedNotification, 0, len(notifications))
	for _, notification := range notifications {
		concorso, err := m.concorsi.GetByID(ctx, notification.ConcorsoID)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to load concorso %v for digest: %v", notification.ConcorsoID, err)
			continue
		}
		if concorso == nil {
			log.Warnf("concorso %v no longer exists, dropping it from digest", notification.ConcorsoID)
			continue
		}
		enriched = append(enriched, enrichedNotification{notification: notification, concorso: *concorso})
	}
	return enriched
}

func (m *DigestMailer) buildEmail(profile entities.UserProfile, enriched []enrichedNotification) (brevo.Email, int, error) {

	urgent := lo.Filter(enriched, func(e enrichedNotification, _ int) bool { return e.notification.DaysLeft == 0 })
	soon := lo.Filter(enriched, func(e enrichedNotification, _ int) bool { return e.notification.DaysLeft == 1 })
	upcoming := lo.Filter(enriched, func(e enrichedNotification, _ int) bool { return e.notification.DaysLeft > 1 })

	subject, priority := subjectAndPriority(len(urgent), len(soon), len(upcoming))

	userName := profile.FirstName
	if userName == "" {
		userName = "candidato"
	}

	data := digestData{
		UserName:         userName,
		Urgent:           lo.Map(urgent, m.toDigestItem),
		Soon:             lo.Map(soon, m.toDigestItem),
		Upcoming:         lo.Map(upcoming, m.toDigestItem),
		NotificationsURL: m.cfg.BaseURL + "/notifiche",
	}

	var buf bytes.Buffer
	if err := digestTemplate.ExecuteTemplate(&buf, "digest.html", data); err != nil {
		return brevo.Email{}, 0, fmt.Errorf("failed to render digest template: %w", err)
	}

	return brevo.Email{
		To:          []brevo.Recipient{{Email: profile.Email, Name: userName}},
		Sender:      brevo.Sender{Email: m.cfg.SenderEmail, Name: m.cfg.SenderName},
		Subject:     subject,
		HTMLContent: buf.String(),
		TextContent: renderTextBody(data),
		Params: map[string]any{
			"USER_NAME":          userName,
			"NOTIFICATION_COUNT": len(enriched),
			"URGENT_COUNT":       len(urgent),
			"SOON_COUNT":         len(soon),
		},
		Tags: []string{"notification", "concorso", priority},
	}, len(urgent), nil
}

func (m *DigestMailer) toDigestItem(e enrichedNotification, _ int) digestItem {
	return digestItem{
		Title:    e.concorso.Title(),
		Ente:     e.concorso.Ente,
		Deadline: e.notification.Scadenza.Format("02/01/2006"),
		DaysLeft: e.notification.DaysLeft,
		URL:      m.cfg.BaseURL + "/bandi/" + e.concorso.ID,
	}
}

// subjectAndPriority derives the Italian subject line from the most urgent
// non-empty bucket, with singular/plural phrasing.
func subjectAndPriority(urgent int, soon int, upcoming int) (string, string) {
	switch {
	case urgent == 1:
		return "🚨 1 concorso scade OGGI!", "high"
	case urgent > 1:
		return fmt.Sprintf("🚨 %d concorsi scadono OGGI!", urgent), "high"
	case soon == 1:
		return "⏰ 1 concorso scade domani", "medium"
	case soon > 1:
		return fmt.Sprintf("⏰ %d concorsi scadono domani", soon), "medium"
	case upcoming == 1:
		return "📅 1 concorso in scadenza questa settimana", "normal"
	default:
		return fmt.Sprintf("📅 %d concorsi in scadenza questa settimana", upcoming), "normal"
	}
}

func renderTextBody(data digestData) string {

	var b strings.Builder
	fmt.Fprintf(&b, "Ciao %s,\n\necco le scadenze dei tuoi concorsi salvati.\n", data.UserName)

	writeSection := func(header string, items []digestItem) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s\n", header)
		for _, item := range items {
			fmt.Fprintf(&b, "- %s — %s (scadenza %s)\n  %s\n", item.Title, item.Ente, item.Deadline, item.URL)
		}
	}

	writeSection("SCADONO OGGI:", data.Urgent)
	writeSection("SCADONO DOMANI:", data.Soon)
	writeSection("PROSSIME SCADENZE:", data.Upcoming)

	fmt.Fprintf(&b, "\nTutte le notifiche: %s\n", data.NotificationsURL)
	return b.String()
}
