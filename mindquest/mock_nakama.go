package mindquest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
)

// MockNakamaModule is an in-memory stand-in for the Nakama runtime used in tests and
// local harnesses. Only the storage and file APIs the gameplay systems touch are
// implemented; calling anything else panics through the embedded nil interface.
type MockNakamaModule struct {
	runtime.NakamaModule

	logger *zap.Logger

	mu      sync.Mutex
	objects map[string]string
	files   map[string]string

	// FailWrites makes every StorageWrite return an error, for exercising the
	// in-memory degradation path.
	FailWrites bool
	// WriteCount tracks the number of StorageWrite calls observed.
	WriteCount int
}

func NewMockNakamaModule() *MockNakamaModule {
	logger, _ := zap.NewDevelopment()
	return &MockNakamaModule{
		logger:  logger,
		objects: make(map[string]string),
		files:   make(map[string]string),
	}
}

func storageObjectKey(collection, key, userID string) string {
	return fmt.Sprintf("%s/%s/%s", collection, key, userID)
}

func (m *MockNakamaModule) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	objects := make([]*api.StorageObject, 0, len(reads))
	for _, read := range reads {
		value, ok := m.objects[storageObjectKey(read.Collection, read.Key, read.UserID)]
		if !ok {
			continue
		}
		objects = append(objects, &api.StorageObject{
			Collection: read.Collection,
			Key:        read.Key,
			UserId:     read.UserID,
			Value:      value,
		})
	}
	return objects, nil
}

func (m *MockNakamaModule) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCount++
	if m.FailWrites {
		m.logger.Log(zap.WarnLevel, "storage write failing on purpose")
		return nil, runtime.NewError("storage unavailable", UNAVAILABLE_ERROR_CODE)
	}

	acks := make([]*api.StorageObjectAck, 0, len(writes))
	for _, write := range writes {
		m.objects[storageObjectKey(write.Collection, write.Key, write.UserID)] = write.Value
		acks = append(acks, &api.StorageObjectAck{
			Collection: write.Collection,
			Key:        write.Key,
			UserId:     write.UserID,
		})
	}
	return acks, nil
}

func (m *MockNakamaModule) StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, del := range deletes {
		delete(m.objects, storageObjectKey(del.Collection, del.Key, del.UserID))
	}
	return nil
}

// SetStoredObject seeds a raw storage value, bypassing the systems.
func (m *MockNakamaModule) SetStoredObject(collection, key, userID, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageObjectKey(collection, key, userID)] = value
}

// StoredObject returns the raw durable value, or "" when absent.
func (m *MockNakamaModule) StoredObject(collection, key, userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[storageObjectKey(collection, key, userID)]
}

// SetFile seeds an in-memory config file served by ReadFile.
func (m *MockNakamaModule) SetFile(path, contents string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = contents
}

func (m *MockNakamaModule) ReadFile(path string) (*os.File, error) {
	m.mu.Lock()
	contents, ok := m.files[path]
	m.mu.Unlock()
	if !ok {
		return os.Open(path)
	}

	// Materialize in-memory contents through a temp file to satisfy the *os.File API.
	f, err := os.CreateTemp("", "mindquest-config-*.json")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, strings.NewReader(contents)); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

var _ runtime.Logger = &zapRuntimeLogger{}

// zapRuntimeLogger adapts a zap logger to the runtime.Logger interface.
type zapRuntimeLogger struct {
	logger *zap.SugaredLogger
	fields map[string]interface{}
}

func NewZapRuntimeLogger() runtime.Logger {
	logger, _ := zap.NewDevelopment()
	return &zapRuntimeLogger{logger: logger.Sugar()}
}

func (l *zapRuntimeLogger) Debug(format string, v ...interface{}) { l.logger.Debugf(format, v...) }
func (l *zapRuntimeLogger) Info(format string, v ...interface{})  { l.logger.Infof(format, v...) }
func (l *zapRuntimeLogger) Warn(format string, v ...interface{})  { l.logger.Warnf(format, v...) }
func (l *zapRuntimeLogger) Error(format string, v ...interface{}) { l.logger.Errorf(format, v...) }

func (l *zapRuntimeLogger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

func (l *zapRuntimeLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		merged[k] = v
		args = append(args, k, v)
	}
	return &zapRuntimeLogger{logger: l.logger.With(args...), fields: merged}
}

func (l *zapRuntimeLogger) Fields() map[string]interface{} {
	return l.fields
}
