package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kheyma/kheyma-service/internal/config"
	"github.com/kheyma/kheyma-service/internal/events"
)

func TestNotificationService_Handle(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{EmailFrom: "noreply@kheyma.local"})

	require.NoError(t, n.Handle(context.Background(), events.Event{Type: events.EventUserRegistered, Subject: "a@x.com"}))

	stubs := logs.FilterMessage("sendEmailNotificationStub").All()
	require.Len(t, stubs, 1)
	assert.Equal(t, "a@x.com", stubs[0].ContextMap()["to"])
	assert.Equal(t, "welcome", stubs[0].ContextMap()["template"])
}

func TestNotificationService_NoSenderConfigured(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{})

	require.NoError(t, n.Handle(context.Background(), events.Event{Type: events.EventUserStatusChanged, Subject: "a@x.com"}))

	assert.Equal(t, 0, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Equal(t, 1, logs.FilterMessage("UserStatusChanged").Len())
}

func TestNotificationService_Events(t *testing.T) {
	n := NewNotificationService(nil, config.NotificationConfig{})
	assert.Contains(t, n.Events(), events.EventUserRegistered)
	assert.NotContains(t, n.Events(), events.EventLoginSucceeded)
}
