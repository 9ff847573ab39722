package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver for the device store
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/interfaces"
)

// ErrNoClient is returned when no paired client can deliver a message
var ErrNoClient = errors.New("no whatsapp client available")

// CommandProcessor turns one chat message into a reply
type CommandProcessor interface {
	Process(ctx context.Context, sender, message string) string
}

// ClientManager handles WhatsApp client connections and forwards incoming
// commands to the game.
type ClientManager struct {
	clients   map[string]*ClientInfo
	processor CommandProcessor
	config    config.WhatsAppConfig
	logger    *zap.Logger
	mutex     sync.RWMutex
}

// ClientInfo holds information about a WhatsApp client connection
type ClientInfo struct {
	UUID        string
	PhoneNumber string
	Client      *whatsmeow.Client
	Store       *store.Device
}

var _ interfaces.MessageSender = (*ClientManager)(nil)

// NewClientManager creates a new WhatsApp client manager
func NewClientManager(processor CommandProcessor, cfg config.WhatsAppConfig, logger *zap.Logger) *ClientManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientManager{
		clients:   make(map[string]*ClientInfo),
		processor: processor,
		config:    cfg,
		logger:    logger,
	}
}

// RestoreSessions reconnects every paired device found in the store
// directory. Only the newest store file per phone number is kept.
func (cm *ClientManager) RestoreSessions() {
	if err := os.MkdirAll(cm.config.StoreDir, 0755); err != nil {
		cm.logger.Error("Failed to create store directory", zap.Error(err))
		return
	}

	files, err := filepath.Glob(filepath.Join(cm.config.StoreDir, "store_*.db"))
	if err != nil {
		cm.logger.Error("Failed to scan for existing sessions", zap.Error(err))
		return
	}

	type candidate struct {
		file      string
		sessionID string
		modTime   time.Time
	}
	latest := make(map[string]candidate)
	for _, file := range files {
		phoneNumber, sessionID, ok := parseStoreFile(filepath.Base(file))
		if !ok {
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			cm.logger.Error("Failed to get file info",
				zap.String("file", file),
				zap.Error(err))
			continue
		}
		if cur, exists := latest[phoneNumber]; !exists || info.ModTime().After(cur.modTime) {
			latest[phoneNumber] = candidate{file: file, sessionID: sessionID, modTime: info.ModTime()}
		}
	}

	for phoneNumber, c := range latest {
		for _, file := range files {
			if file == c.file || !strings.HasPrefix(filepath.Base(file), "store_"+phoneNumber+"_") {
				continue
			}
			if err := os.Remove(file); err != nil {
				cm.logger.Error("Failed to remove old session file",
					zap.String("file", file),
					zap.Error(err))
			} else {
				cm.logger.Info("Removed old session file", zap.String("file", file))
			}
		}

		client, err := cm.SetupClient(c.sessionID, phoneNumber)
		if err != nil {
			cm.logger.Error("Failed to restore client",
				zap.String("phoneNumber", phoneNumber),
				zap.Error(err))
			continue
		}

		if client.Store.ID == nil {
			cm.logger.Info("Session requires QR code login",
				zap.String("phoneNumber", phoneNumber))
			continue
		}

		go func(phone string, cli *whatsmeow.Client) {
			if err := cli.Connect(); err != nil {
				cm.logger.Error("Failed to connect restored client",
					zap.String("phoneNumber", phone),
					zap.Error(err))
				return
			}
			cm.logger.Info("Successfully connected restored client",
				zap.String("phoneNumber", phone))
		}(phoneNumber, client)
	}
}

// SetupClient opens (or creates) the device store for phoneNumber and
// registers a client for it
func (cm *ClientManager) SetupClient(sessionID, phoneNumber string) (*whatsmeow.Client, error) {
	if err := os.MkdirAll(cm.config.StoreDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	container, err := cm.openContainer(sessionID, phoneNumber)
	if err != nil {
		return nil, err
	}

	deviceStore, err := container.GetFirstDevice()
	if err != nil || deviceStore == nil {
		deviceStore = container.NewDevice()
	}

	client := cm.newClient(deviceStore)

	cm.mutex.Lock()
	cm.clients[phoneNumber] = &ClientInfo{
		UUID:        sessionID,
		PhoneNumber: phoneNumber,
		Client:      client,
		Store:       deviceStore,
	}
	cm.mutex.Unlock()

	return client, nil
}

// GetClient retrieves a WhatsApp client by phone number, reconnecting it when
// the device is paired but offline
func (cm *ClientManager) GetClient(phoneNumber string) (*whatsmeow.Client, bool) {
	cm.mutex.RLock()
	clientInfo, exists := cm.clients[phoneNumber]
	cm.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if !clientInfo.Client.IsConnected() && clientInfo.Store.ID != nil {
		if err := clientInfo.Client.Connect(); err != nil {
			cm.logger.Error("Failed to connect client",
				zap.String("phoneNumber", phoneNumber),
				zap.Error(err))
			return nil, false
		}
		cm.logger.Info("Successfully reconnected client",
			zap.String("phoneNumber", phoneNumber))
	}

	return clientInfo.Client, true
}

// GetQRChannel starts a fresh pairing for phoneNumber and returns the channel
// the pairing codes arrive on
func (cm *ClientManager) GetQRChannel(ctx context.Context, phoneNumber string) (<-chan whatsmeow.QRChannelItem, error) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if clientInfo, exists := cm.clients[phoneNumber]; exists {
		clientInfo.Client.Disconnect()
		delete(cm.clients, phoneNumber)
	}

	if err := os.MkdirAll(cm.config.StoreDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	sessionID := uuid.New().String()
	container, err := cm.openContainer(sessionID, phoneNumber)
	if err != nil {
		return nil, err
	}

	deviceStore := container.NewDevice()
	client := cm.newClient(deviceStore)

	qrChan, err := client.GetQRChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get QR channel: %w", err)
	}

	cm.clients[phoneNumber] = &ClientInfo{
		UUID:        sessionID,
		PhoneNumber: phoneNumber,
		Client:      client,
		Store:       deviceStore,
	}

	go func() {
		if err := client.Connect(); err != nil {
			cm.logger.Error("Failed to connect client",
				zap.String("phoneNumber", phoneNumber),
				zap.Error(err))
			return
		}
		cm.logger.Info("Client connected successfully",
			zap.String("phoneNumber", phoneNumber))
	}()

	return qrChan, nil
}

// Disconnect closes a specific WhatsApp connection
func (cm *ClientManager) Disconnect(phoneNumber string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	clientInfo, exists := cm.clients[phoneNumber]
	if !exists {
		return fmt.Errorf("client not found for phone number: %s", phoneNumber)
	}

	clientInfo.Client.Disconnect()
	delete(cm.clients, phoneNumber)
	return nil
}

// DisconnectAll closes all WhatsApp connections
func (cm *ClientManager) DisconnectAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for phoneNumber, clientInfo := range cm.clients {
		if clientInfo.Client != nil {
			clientInfo.Client.Disconnect()
			cm.logger.Info("Disconnected client", zap.String("phoneNumber", phoneNumber))
		}
	}

	cm.clients = make(map[string]*ClientInfo)
}

// IsLoggedIn checks if a client is logged in
func (cm *ClientManager) IsLoggedIn(phoneNumber string) (bool, error) {
	client, exists := cm.GetClient(phoneNumber)
	if !exists {
		return false, fmt.Errorf("client not found for phone number: %s", phoneNumber)
	}

	return client.IsLoggedIn(), nil
}

// SendTextMessage sends a text message from the client paired as phoneNumber
func (cm *ClientManager) SendTextMessage(ctx context.Context, phoneNumber, recipient, message string) (string, error) {
	client, exists := cm.GetClient(phoneNumber)
	if !exists {
		return "", fmt.Errorf("client not found for phone number: %s", phoneNumber)
	}

	recipientJID, err := parseJID(recipient)
	if err != nil {
		return "", err
	}

	return sendText(ctx, client, recipientJID, message)
}

// SendMessage delivers message to recipient through any paired client
func (cm *ClientManager) SendMessage(recipient, message string) error {
	client := cm.anyClient()
	if client == nil {
		return ErrNoClient
	}

	recipientJID, err := parseJID(recipient)
	if err != nil {
		return err
	}

	_, err = sendText(context.Background(), client, recipientJID, message)
	return err
}

// handleWhatsAppEvent processes incoming WhatsApp events
func (cm *ClientManager) handleWhatsAppEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		cm.handleIncomingMessage(v)
	case *events.Connected:
		cm.logger.Info("WhatsApp client connected")
	case *events.Disconnected:
		cm.logger.Info("WhatsApp client disconnected")
	case *events.LoggedOut:
		cm.logger.Info("WhatsApp client logged out")
	}
}

// handleIncomingMessage answers a command with the game's reply in the same
// chat it came from
func (cm *ClientManager) handleIncomingMessage(message *events.Message) {
	response, ok := cm.respond(context.Background(), message)
	if !ok {
		return
	}

	client := cm.anyClient()
	if client == nil {
		cm.logger.Error("No client available to send response")
		return
	}

	if _, err := sendText(context.Background(), client, message.Info.Chat, response); err != nil {
		cm.logger.Error("Failed to send response",
			zap.String("sender", message.Info.Sender.User),
			zap.Error(err))
	}
}

// respond runs the command carried by message, if any
func (cm *ClientManager) respond(ctx context.Context, message *events.Message) (string, bool) {
	if message.Info.IsFromMe {
		return "", false
	}

	command, ok := extractCommand(messageText(message), message.Info.IsGroup)
	if !ok {
		return "", false
	}

	cm.logger.Debug("Received message",
		zap.String("content", command),
		zap.String("sender", message.Info.Sender.User),
		zap.String("chat", message.Info.Chat.User))

	response := cm.processor.Process(ctx, message.Info.Sender.User, command)
	return response, response != ""
}

func (cm *ClientManager) anyClient() *whatsmeow.Client {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for _, clientInfo := range cm.clients {
		if clientInfo.Client != nil {
			return clientInfo.Client
		}
	}
	return nil
}

func (cm *ClientManager) openContainer(sessionID, phoneNumber string) (*sqlstore.Container, error) {
	dbPath := fmt.Sprintf("file:%s/%s?_foreign_keys=on", cm.config.StoreDir, storeFileName(phoneNumber, sessionID))
	dbLog := waLog.Stdout("Database", "INFO", true)
	container, err := sqlstore.New("sqlite3", dbPath, dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return container, nil
}

func (cm *ClientManager) newClient(deviceStore *store.Device) *whatsmeow.Client {
	store.DeviceProps.RequireFullSync = proto.Bool(false)
	store.DeviceProps.Os = proto.String(cm.config.ClientName)

	clientLog := waLog.Stdout("Client", "INFO", true)
	client := whatsmeow.NewClient(deviceStore, clientLog)
	client.AddEventHandler(cm.handleWhatsAppEvent)
	return client
}

func sendText(ctx context.Context, client *whatsmeow.Client, to waTypes.JID, text string) (string, error) {
	msg := &waProto.Message{
		Conversation: proto.String(text),
	}

	response, err := client.SendMessage(ctx, to, msg)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return response.ID, nil
}

// messageText returns the plain text of a message, or "" for media
func messageText(message *events.Message) string {
	if message.Message == nil {
		return ""
	}
	if content := message.Message.GetConversation(); content != "" {
		return content
	}
	return message.Message.GetExtendedTextMessage().GetText()
}

// extractCommand returns the command a message carries. Private chats use a
// plain '/' prefix; in groups the bot only listens to "/ " so it does not
// react to other bots.
func extractCommand(content string, isGroup bool) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", false
	}

	if isGroup {
		if !strings.HasPrefix(content, "/ ") {
			return "", false
		}
		return "/" + strings.TrimSpace(strings.TrimPrefix(content, "/ ")), true
	}

	if !strings.HasPrefix(content, "/") {
		return "", false
	}
	return content, true
}

// parseJID converts a string to a WhatsApp JID
func parseJID(jidString string) (waTypes.JID, error) {
	if !strings.ContainsRune(jidString, '@') {
		jidString = jidString + "@s.whatsapp.net"
	}

	return waTypes.ParseJID(jidString)
}

func storeFileName(phoneNumber, sessionID string) string {
	return fmt.Sprintf("store_%s_%s.db", phoneNumber, sessionID)
}

// parseStoreFile splits "store_<phone>_<session>.db". Session ids are uuids
// and contain no underscore.
func parseStoreFile(name string) (phoneNumber, sessionID string, ok bool) {
	rest, found := strings.CutPrefix(name, "store_")
	if !found || !strings.HasSuffix(rest, ".db") {
		return "", "", false
	}
	rest = strings.TrimSuffix(rest, ".db")

	i := strings.LastIndex(rest, "_")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}
