package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/concoro/notifier/internal/clients/brevo"
	"github.com/concoro/notifier/internal/config"
	"github.com/concoro/notifier/internal/entities"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetByID(ctx context.Context, userID string) (*entities.UserProfile, error) {
	args := m.Called(ctx, userID)
	profile, _ := args.Get(0).(*entities.UserProfile)
	return profile, args.Error(1)
}

type mockNotificationReader struct {
	mock.Mock
}

func (m *mockNotificationReader) ListActionable(ctx context.Context, userID string, thresholds []int, limit int) ([]entities.Notification, error) {
	args := m.Called(ctx, userID, thresholds, limit)
	notifications, _ := args.Get(0).([]entities.Notification)
	return notifications, args.Error(1)
}

type mockEmailLog struct {
	mock.Mock
}

func (m *mockEmailLog) LastNotificationEntry(ctx context.Context, userID string) (*entities.EmailLogEntry, error) {
	args := m.Called(ctx, userID)
	entry, _ := args.Get(0).(*entities.EmailLogEntry)
	return entry, args.Error(1)
}

func (m *mockEmailLog) Add(ctx context.Context, entry entities.EmailLogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

type mockEmailSender struct {
	mock.Mock
	notConfigured bool
}

func (m *mockEmailSender) IsConfigured() bool {
	return !m.notConfigured
}

func (m *mockEmailSender) SendEmail(ctx context.Context, email brevo.Email) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func testNotifierConfig() config.NotifierConfig {
	return config.NotifierConfig{
		EmailCooldown:       6 * time.Hour,
		EmailBatchLimit:     10,
		EmailableThresholds: []int{0, 1, 3, 7},
		BaseURL:             "https://concoro.it",
		SenderEmail:         "notifiche@concoro.it",
		SenderName:          "Concoro",
	}
}

func notificationFor(concorsoID string, daysLeft int) entities.Notification {
	return entities.Notification{
		UserID:     "u1",
		ConcorsoID: concorsoID,
		DaysLeft:   daysLeft,
		Scadenza:   time.Now().AddDate(0, 0, daysLeft),
		Timestamp:  time.Now(),
	}
}

func Test_SendDigest_NoActionableNotifications(t *testing.T) {

	users := &mockUsers{}
	users.On("GetByID", mock.Anything, "u1").Return(&entities.UserProfile{ID: "u1", Email: "u1@example.com"}, nil)

	reader := &mockNotificationReader{}
	reader.On("ListActionable", mock.Anything, "u1", []int{0, 1, 3, 7}, 10).Return([]entities.Notification{}, nil)

	sender := &mockEmailSender{}

	mailer := NewDigestMailer(users, reader, &mockEmailLog{}, &mockConcorsi{}, sender, testNotifierConfig())

	sent, err := mailer.SendDigest(context.Background(), "u1")
	assert.NoError(t, err)
	assert.False(t, sent)
	sender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func Test_SendDigest_NoEmailOnFile(t *testing.T) {

	users := &mockUsers{}
	users.On("GetByID", mock.Anything, "u1").Return(&entities.UserProfile{ID: "u1"}, nil)

	reader := &mockNotificationReader{}
	sender := &mockEmailSender{}

	mailer := NewDigestMailer(users, reader, &mockEmailLog{}, &mockConcorsi{}, sender, testNotifierConfig())

	sent, err := mailer.SendDigest(context.Background(), "u1")
	assert.NoError(t, err)
	assert.False(t, sent)
	reader.AssertNotCalled(t, "ListActionable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_SendDigest_CooldownStillActive(t *testing.T) {

	users := &mockUsers{}
	users.On("GetByID", mock.Anything, "u1").Return(&entities.UserProfile{ID: "u1", Email: "u1@example.com"}, nil)

	reader := &mockNotificationReader{}
	reader.On("ListActionable", mock.Anything, "u1", mock.Anything, mock.Anything).
		Return([]entities.Notification{notificationFor("c1", 7)}, nil)

	concorsi := &mockConcorsi{}
	concorsi.On("GetByID", mock.Anything, "c1").Return(&entities.Concorso{ID: "c1", Titolo: "Funzionario"}, nil)

	emailLog := &mockEmailLog{}
	emailLog.On("LastNotificationEntry", mock.Anything, "u1").
		Return(&entities.EmailLogEntry{SentAt: time.Now().Add(-2 * time.Hour)}, nil)

	sender := &mockEmailSender{}

	mailer := NewDigestMailer(users, reader, emailLog, concorsi, sender, testNotifierConfig())

	sent, err := mailer.SendDigest(context.Background(), "u1")
	assert.NoError(t, err)
	assert.False(t, sent)
	sender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func Test_SendDigest_CooldownExpired(t *testing.T) {

	users := &mockUsers{}
	users.On("GetByID", mock.Anything, "u1").Return(&entities.UserProfile{ID: "u1", Email: "u1@example.com", FirstName: "Giulia"}, nil)

	reader := &mockNotificationReader{}
	reader.On("ListActionable", mock.Anything, "u1", mock.Anything, mock.Anything).
		Return([]entities.Notification{notificationFor("c1", 7)}, nil)

	concorsi := &mockConcorsi{}
	concorsi.On("GetByID", mock.Anything, "c1").
		Return(&entities.Concorso{ID: "c1", Titolo: "Funzionario amministrativo", Ente: "Comune di Milano"}, nil)

	emailLog := &mockEmailLog{}
	emailLog.On("LastNotificationEntry", mock.Anything, "u1").
		Return(&entities.EmailLogEntry{SentAt: time.Now().Add(-7 * time.Hour)}, nil)
	emailLog.On("Add", mock.Anything, mock.MatchedBy(func(entry entities.EmailLogEntry) bool {
		return entry.UserID == "u1" && entry.Type == entities.EmailLogTypeNotification &&
			entry.NotificationCount == 1 && entry.UrgentCount == 0
	})).Return(nil)

	sender := &mockEmailSender{}
	sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(email brevo.Email) bool {
		return strings.Contains(email.Subject, "📅") &&
			strings.Contains(email.HTMLContent, "https://concoro.it/bandi/c1") &&
			strings.Contains(email.TextContent, "Comune di Milano") &&
			email.Params["USER_NAME"] == "Giulia"
	})).Return("message-id", nil)

	mailer := NewDigestMailer(users, reader, emailLog, concorsi, sender, testNotifierConfig())

	sent, err := mailer.SendDigest(context.Background(), "u1")
	assert.NoError(t, err)
	assert.True(t, sent)
	sender.AssertExpectations(t)
	emailLog.AssertExpectations(t)
}

func Test_SendDigest_MultipleUrgentSubject(t *testing.T) {

	users := &mockUsers{}
	users.On("GetByID", mock.Anything, "u1").Return(&entities.UserProfile{ID: "u1", Email: "u1@example.com"}, nil)

	reader := &mockNotificationReader{}
	reader.On("ListActionable", mock.Anything, "u1", mock.Anything, mock.Anything).
		Return([]entities.Notification{
			notificationFor("c1", 0),
			notificationFor("c2", 0),
			notificationFor("c3", 0),
		}, nil)

	concorsi := &mockConcorsi{}
	for _, id := range []string{"c1", "c2", "c3"} {
		concorsi.On("GetByID", mock.Anything, id).Return(&entities.Concorso{ID: id, Titolo: "Concorso " + id}, nil)
	}

	emailLog := &mockEmailLog{}
	emailLog.On("LastNotificationEntry", mock.Anything, "u1").Return(nil, nil)
	emailLog.On("Add", mock.Anything, mock.MatchedBy(func(entry entities.EmailLogEntry) bool {
		return entry.UrgentCount == 3
	})).Return(nil)

	sender := &mockEmailSender{}
	sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(email brevo.Email) bool {
		return email.Subject == "🚨 3 concorsi scadono OGGI!" &&
			email.Tags[2] == "high" &&
			email.Params["URGENT_COUNT"] == 3
	})).Return("message-id", nil)

	mailer := NewDigestMailer(users, reader, emailLog, concorsi, sender, testNotifierConfig())

	sent, err := mailer.SendDigest(context.Background(), "u1")
	assert.NoError(t, err)
	assert.True(t, sent)
	sender.AssertExpectations(t)
}

func Test_SendDigest_NotConfiguredSkipsWithoutError(t *testing.T) {

	users := &mockUsers{}
	users.On("GetByID", mock.Anything, "u1").Return(&entities.UserProfile{ID: "u1", Email: "u1@example.com"}, nil)

	reader := &mockNotificationReader{}
	reader.On("ListActionable", mock.Anything, "u1", mock.Anything, mock.Anything).
		Return([]entities.Notification{notificationFor("c1", 1)}, nil)

	concorsi := &mockConcorsi{}
	concorsi.On("GetByID", mock.Anything, "c1").Return(&entities.Concorso{ID: "c1"}, nil)

	emailLog := &mockEmailLog{}
	emailLog.On("LastNotificationEntry", mock.Anything, "u1").Return(nil, nil)

	sender := &mockEmailSender{notConfigured: true}

	mailer := NewDigestMailer(users, reader, emailLog, concorsi, sender, testNotifierConfig())

	sent, err := mailer.SendDigest(context.Background(), "u1")
	assert.NoError(t, err)
	assert.False(t, sent)
	emailLog.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func Test_SendDigest_AllEnrichmentsFailingSkipsSend(t *testing.T) {

	users := &mockUsers{}
	users.On("GetByID", mock.Anything, "u1").Return(&entities.UserProfile{ID: "u1", Email: "u1@example.com"}, nil)

	reader := &mockNotificationReader{}
	reader.On("ListActionable", mock.Anything, "u1", mock.Anything, mock.Anything).
		Return([]entities.Notification{notificationFor("gone", 0)}, nil)

	concorsi := &mockConcorsi{}
	concorsi.On("GetByID", mock.Anything, "gone").Return(nil, nil)

	sender := &mockEmailSender{}

	mailer := NewDigestMailer(users, reader, &mockEmailLog{}, concorsi, sender, testNotifierConfig())

	sent, err := mailer.SendDigest(context.Background(), "u1")
	assert.NoError(t, err)
	assert.False(t, sent)
	sender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func Test_SendDigest_ProviderFailurePropagatesWithoutLogWrite(t *testing.T) {

	users := &mockUsers{}
	users.On("GetByID", mock.Anything, "u1").Return(&entities.UserProfile{ID: "u1", Email: "u1@example.com"}, nil)

	reader := &mockNotificationReader{}
	reader.On("ListActionable", mock.Anything, "u1", mock.Anything, mock.Anything).
		Return([]entities.Notification{notificationFor("c1", 0)}, nil)

	concorsi := &mockConcorsi{}
	concorsi.On("GetByID", mock.Anything, "c1").Return(&entities.Concorso{ID: "c1"}, nil)

	emailLog := &mockEmailLog{}
	emailLog.On("LastNotificationEntry", mock.Anything, "u1").Return(nil, nil)

	sender := &mockEmailSender{}
	sender.On("SendEmail", mock.Anything, mock.Anything).Return("", errors.New("status 500"))

	mailer := NewDigestMailer(users, reader, emailLog, concorsi, sender, testNotifierConfig())

	sent, err := mailer.SendDigest(context.Background(), "u1")
	require.Error(t, err)
	assert.False(t, sent)
	emailLog.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}
