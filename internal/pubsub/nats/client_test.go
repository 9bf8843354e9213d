package nats

import (
	"context"
	"sync"
	"testing"
	"time"

	"ammindexer/internal/config"

	"github.com/nats-io/nats-server/v2/server"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/nevasik7/alerting/logger"
)

// MockLogger implements logger.Logger for tests
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string)                       { m.Called(msg) }
func (m *MockLogger) Debugf(msg string, args ...interface{}) { m.Called(msg, args) }
func (m *MockLogger) Info(msg string)                        { m.Called(msg) }
func (m *MockLogger) Infof(msg string, args ...interface{})  { m.Called(msg, args) }
func (m *MockLogger) Warn(msg string)                        { m.Called(msg) }
func (m *MockLogger) Warnf(msg string, args ...interface{})  { m.Called(msg, args) }
func (m *MockLogger) Error(msg string)                       { m.Called(msg) }
func (m *MockLogger) Errorf(msg string, args ...interface{}) { m.Called(msg, args) }
func (m *MockLogger) Fatal(msg string)                       { m.Called(msg) }
func (m *MockLogger) Fatalf(msg string, args ...interface{}) { m.Called(msg, args) }
func (m *MockLogger) Panic(msg string)                       { m.Called(msg) }
func (m *MockLogger) Panicf(msg string, args ...interface{}) { m.Called(msg, args) }

func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	m.Called(key, value)
	return m
}

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	m.Called(fields)
	return m
}

const subject = "chain.logs"

// ========== No Connection Tests ==========

func TestConnect_InvalidConfig(t *testing.T) {
	mockLogger := new(MockLogger)

	client, err := Connect(mockLogger, nil)
	assert.EqualError(t, err, "config is required")
	assert.Nil(t, client)

	client, err = Connect(mockLogger, &config.NATSConfig{})
	assert.EqualError(t, err, "nats url is required")
	assert.Nil(t, client)

	mockLogger.AssertNotCalled(t, "Infof", mock.Anything, mock.Anything)
}

func TestClient_NilConnection(t *testing.T) {
	mockLogger := new(MockLogger)
	client := &Client{log: mockLogger}

	assert.False(t, client.Ready())
	assert.Equal(t, nats.DISCONNECTED, client.Status())
	assert.Error(t, client.Health(context.Background()))
	assert.NoError(t, client.Close())

	_, err := client.Subscribe(context.Background(), subject, "", func(context.Context, []byte) {})
	assert.Error(t, err)

	mockLogger.AssertNotCalled(t, "Errorf", mock.Anything, mock.Anything)
}

// ========== In-Memory Server Tests ==========

func runTestWithInMemoryNATS(t *testing.T, testFunc func(*testing.T, *server.Server, string)) {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	testFunc(t, s, s.ClientURL())
}

func connectedClient(t *testing.T, url string) (*Client, *MockLogger) {
	t.Helper()

	mockLogger := new(MockLogger)
	mockLogger.On("Infof", "Connected to NATS successfully, url=%s", mock.Anything).Once()

	client, err := Connect(mockLogger, &config.NATSConfig{URL: url})
	require.NoError(t, err)
	return client, mockLogger
}

func TestConnect_Success(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, mockLogger := connectedClient(t, url)
		defer client.nc.Close()

		assert.True(t, client.Ready())
		assert.Equal(t, nats.CONNECTED, client.Status())
		assert.NoError(t, client.Health(context.Background()))
		mockLogger.AssertExpectations(t)
	})
}

func TestSubscribe_SequentialInOrder(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, mockLogger := connectedClient(t, url)
		mockLogger.On("Infof", "Subscribed to NATS, subject=%s queue=%s", mock.Anything).Once()
		mockLogger.On("Infof", "NATS connection closed gracefully", mock.Anything).Once()

		const n = 50
		var (
			mu       sync.Mutex
			got      []string
			inFlight int
			overlap  bool
			done     = make(chan struct{})
		)

		_, err := client.Subscribe(context.Background(), subject, "indexer", func(_ context.Context, data []byte) {
			mu.Lock()
			inFlight++
			if inFlight > 1 {
				overlap = true
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inFlight--
			got = append(got, string(data))
			if len(got) == n {
				close(done)
			}
			mu.Unlock()
		})
		require.NoError(t, err)

		for i := 0; i < n; i++ {
			require.NoError(t, client.Publish(context.Background(), subject, []byte{byte('a' + i%26)}))
		}
		require.NoError(t, client.Flush())

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("messages not delivered")
		}

		mu.Lock()
		assert.False(t, overlap)
		for i := 0; i < n; i++ {
			assert.Equal(t, string([]byte{byte('a' + i%26)}), got[i])
		}
		mu.Unlock()

		require.NoError(t, client.Close())
		mockLogger.AssertExpectations(t)
	})
}

func TestPublish_JSON(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, _ := connectedClient(t, url)
		defer client.nc.Close()

		received := make(chan []byte, 1)
		sub, err := client.nc.Subscribe(subject, func(m *nats.Msg) { received <- m.Data })
		require.NoError(t, err)
		defer sub.Unsubscribe()

		require.NoError(t, client.Publish(context.Background(), subject, map[string]int{"n": 1}))

		select {
		case b := <-received:
			assert.JSONEq(t, `{"n":1}`, string(b))
		case <-time.After(2 * time.Second):
			t.Fatal("message not delivered")
		}
	})
}

func TestClose_Idempotent(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, mockLogger := connectedClient(t, url)
		mockLogger.On("Infof", "NATS connection closed gracefully", mock.Anything).Once()

		assert.NoError(t, client.Close())
		assert.NoError(t, client.Close())
		assert.NoError(t, client.Close())

		assert.False(t, client.Ready())
		assert.Equal(t, nats.CLOSED, client.Status())
		mockLogger.AssertNumberOfCalls(t, "Infof", 2)
	})
}
