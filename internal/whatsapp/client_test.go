package whatsapp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
)

// Mock CommandProcessor for testing
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, sender, message string) string {
	args := m.Called(sender, message)
	return args.String(0)
}

func newTestClientManager(t *testing.T, processor CommandProcessor) *ClientManager {
	t.Helper()
	cfg := config.DefaultConfig().WhatsApp
	cfg.StoreDir = t.TempDir()
	return NewClientManager(processor, cfg, zap.NewNop())
}

func textMessage(sender, chat, text string, isGroup, fromMe bool) *events.Message {
	senderJID, _ := parseJID(sender)
	chatJID, _ := parseJID(chat)
	return &events.Message{
		Info: waTypes.MessageInfo{
			MessageSource: waTypes.MessageSource{
				Chat:     chatJID,
				Sender:   senderJID,
				IsFromMe: fromMe,
				IsGroup:  isGroup,
			},
		},
		Message: &waProto.Message{Conversation: proto.String(text)},
	}
}

func TestRespond(t *testing.T) {
	// Setup
	processor := new(MockProcessor)
	cm := newTestClientManager(t, processor)
	ctx := context.Background()

	processor.On("Process", "5521999999999", "/start 2").Return("*Market Swings*")

	// Test case 1: Private command
	reply, ok := cm.respond(ctx, textMessage("5521999999999", "5521999999999", "/start 2", false, false))
	assert.True(t, ok)
	assert.Equal(t, "*Market Swings*", reply)

	// Test case 2: Group commands need the "/ " prefix
	reply, ok = cm.respond(ctx, textMessage("5521999999999", "12036304@g.us", "/ start 2", true, false))
	assert.True(t, ok)
	assert.Equal(t, "*Market Swings*", reply)

	_, ok = cm.respond(ctx, textMessage("5521999999999", "12036304@g.us", "/start 2", true, false))
	assert.False(t, ok)

	// Test case 3: Plain chatter and our own messages are ignored
	_, ok = cm.respond(ctx, textMessage("5521999999999", "5521999999999", "hello there", false, false))
	assert.False(t, ok)
	_, ok = cm.respond(ctx, textMessage("5521999999999", "5521999999999", "/start 2", false, true))
	assert.False(t, ok)

	processor.AssertNumberOfCalls(t, "Process", 2)
	processor.AssertExpectations(t)
}

func TestRespondExtendedText(t *testing.T) {
	processor := new(MockProcessor)
	cm := newTestClientManager(t, processor)

	processor.On("Process", "5521888888888", "/next").Return("ok")

	msg := textMessage("5521888888888", "5521888888888", "", false, false)
	msg.Message = &waProto.Message{
		ExtendedTextMessage: &waProto.ExtendedTextMessage{Text: proto.String("/next")},
	}

	reply, ok := cm.respond(context.Background(), msg)
	assert.True(t, ok)
	assert.Equal(t, "ok", reply)
}

func TestExtractCommand(t *testing.T) {
	tests := []struct {
		name    string
		content string
		isGroup bool
		want    string
		ok      bool
	}{
		{"private", "/help", false, "/help", true},
		{"private padded", "  /choose 1 ", false, "/choose 1", true},
		{"private without slash", "help", false, "", false},
		{"group", "/ choose 2", true, "/choose 2", true},
		{"group bare slash", "/choose 2", true, "", false},
		{"empty", "   ", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractCommand(tt.content, tt.isGroup)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJID(t *testing.T) {
	jid, err := parseJID("5521999999999")
	require.NoError(t, err)
	assert.Equal(t, "5521999999999", jid.User)
	assert.Equal(t, "s.whatsapp.net", jid.Server)

	jid, err = parseJID("12036304@g.us")
	require.NoError(t, err)
	assert.Equal(t, "g.us", jid.Server)
}

func TestParseStoreFile(t *testing.T) {
	name := storeFileName("5521999999999", "0b7d1e4a-2f7c-4a63-9c11-7c5d1f2b8e90")
	assert.Equal(t, "store_5521999999999_0b7d1e4a-2f7c-4a63-9c11-7c5d1f2b8e90.db", name)

	phone, session, ok := parseStoreFile(name)
	require.True(t, ok)
	assert.Equal(t, "5521999999999", phone)
	assert.Equal(t, "0b7d1e4a-2f7c-4a63-9c11-7c5d1f2b8e90", session)

	for _, bad := range []string{"store_.db", "store_5521.db", "other_1_2.db", "store_1_2.txt", "store_1_.db"} {
		_, _, ok := parseStoreFile(bad)
		assert.False(t, ok, bad)
	}
}

func TestSendMessageWithoutClient(t *testing.T) {
	cm := newTestClientManager(t, new(MockProcessor))

	err := cm.SendMessage("5521999999999", "hi")
	assert.ErrorIs(t, err, ErrNoClient)

	err = cm.Disconnect("5521999999999")
	assert.Error(t, err)

	_, err = cm.IsLoggedIn("5521999999999")
	assert.Error(t, err)
}

func TestSessionManagerDelete(t *testing.T) {
	dir := t.TempDir()
	sm := NewSessionManager(dir, zap.NewNop())

	db := filepath.Join(dir, storeFileName("5521999999999", "abc"))
	require.NoError(t, os.WriteFile(db, nil, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "qrcodes"), 0755))
	qr := filepath.Join(dir, "qrcodes", "5521999999999.png")
	require.NoError(t, os.WriteFile(qr, []byte("png"), 0644))

	require.NoError(t, sm.DeleteSession("5521999999999", "abc"))
	assert.NoFileExists(t, db)
	assert.NoFileExists(t, qr)

	// Deleting twice is fine
	assert.NoError(t, sm.DeleteSession("5521999999999", "abc"))
}

func TestSessionManagerListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	sm := NewSessionManager(dir, zap.NewNop())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "store_broken.db"), nil, 0644))

	sessions, err := sm.ListSessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionManagerListClosesStores(t *testing.T) {
	dir := t.TempDir()
	sm := NewSessionManager(dir, zap.NewNop())

	// Setup
	var opened []*sqlstore.Container
	sm.openStore = func(path string) (*sqlstore.Container, error) {
		container, err := openSessionStore(path)
		if err == nil {
			opened = append(opened, container)
		}
		return container, err
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, storeFileName("5521999999999", "abc")), nil, 0644))

	// Test case 1: an unpaired store is listed without a JID
	sessions, err := sm.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "5521999999999", sessions[0].PhoneNumber)
	assert.Equal(t, "abc", sessions[0].ID)
	assert.Empty(t, sessions[0].JID)

	// Test case 2: the store was closed after reading it
	require.Len(t, opened, 1)
	_, err = opened[0].GetFirstDevice()
	assert.Error(t, err)
}

func TestWriteQRCode(t *testing.T) {
	dir := t.TempDir()
	qm := NewQRCodeManager(nil, dir, zap.NewNop())
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "qrcodes"), 0755))

	code, err := qm.writeCode("5521999999999", "2@abc,def,ghi")
	require.NoError(t, err)
	assert.Equal(t, "2@abc,def,ghi", code.Code)

	data, err := os.ReadFile(code.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}
