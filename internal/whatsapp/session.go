package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
)

// QRTimeout bounds how long pairing waits for the first code
const QRTimeout = 60 * time.Second

// QRCodeManager handles QR code generation for device pairing
type QRCodeManager struct {
	clientManager *ClientManager
	qrDir         string
	logger        *zap.Logger
}

// PairingCode is a pairing code and the PNG it was rendered to
type PairingCode struct {
	Code string `json:"qr_code"`
	Path string `json:"path"`
}

// NewQRCodeManager creates a new QR code manager writing images below
// storeDir
func NewQRCodeManager(clientManager *ClientManager, storeDir string, logger *zap.Logger) *QRCodeManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRCodeManager{
		clientManager: clientManager,
		qrDir:         filepath.Join(storeDir, "qrcodes"),
		logger:        logger,
	}
}

// GenerateQRCode starts pairing for phoneNumber and waits for the first code
func (qm *QRCodeManager) GenerateQRCode(ctx context.Context, phoneNumber string) (PairingCode, error) {
	if err := os.MkdirAll(qm.qrDir, 0755); err != nil {
		return PairingCode{}, fmt.Errorf("failed to create QR code directory: %w", err)
	}

	qrChan, err := qm.clientManager.GetQRChannel(context.Background(), phoneNumber)
	if err != nil {
		return PairingCode{}, fmt.Errorf("failed to set up pairing: %w", err)
	}

	timer := time.NewTimer(QRTimeout)
	defer timer.Stop()

	select {
	case evt, ok := <-qrChan:
		if !ok {
			return PairingCode{}, fmt.Errorf("pairing channel closed")
		}
		if evt.Event != "code" {
			return PairingCode{}, fmt.Errorf("unexpected QR event: %s", evt.Event)
		}
		return qm.writeCode(phoneNumber, evt.Code)
	case <-ctx.Done():
		return PairingCode{}, ctx.Err()
	case <-timer.C:
		return PairingCode{}, fmt.Errorf("timeout waiting for QR code")
	}
}

func (qm *QRCodeManager) writeCode(phoneNumber, code string) (PairingCode, error) {
	qrPath := filepath.Join(qm.qrDir, phoneNumber+".png")
	if err := qrcode.WriteFile(code, qrcode.Medium, 256, qrPath); err != nil {
		return PairingCode{}, fmt.Errorf("failed to generate QR code image: %w", err)
	}

	qm.logger.Info("QR code generated",
		zap.String("phone_number", phoneNumber),
		zap.String("path", qrPath))

	return PairingCode{Code: code, Path: qrPath}, nil
}

// SessionManager lists and removes paired device stores
type SessionManager struct {
	storeDir  string
	logger    *zap.Logger
	openStore func(path string) (*sqlstore.Container, error)
}

// SessionInfo holds information about a WhatsApp session
type SessionInfo struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	JID         string    `json:"jid,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSessionManager creates a new session manager
func NewSessionManager(storeDir string, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		storeDir:  storeDir,
		logger:    logger,
		openStore: openSessionStore,
	}
}

// ListSessions returns the device stores found in the store directory,
// newest first. Stores that were never paired have an empty JID.
func (sm *SessionManager) ListSessions() ([]SessionInfo, error) {
	if err := os.MkdirAll(sm.storeDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(sm.storeDir, "store_*.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(matches))
	for _, match := range matches {
		phoneNumber, sessionID, ok := parseStoreFile(filepath.Base(match))
		if !ok {
			sm.logger.Warn("Failed to parse session filename", zap.String("filename", filepath.Base(match)))
			continue
		}

		info, err := os.Stat(match)
		if err != nil {
			sm.logger.Warn("Failed to stat session file", zap.String("path", match), zap.Error(err))
			continue
		}

		sessions = append(sessions, SessionInfo{
			ID:          sessionID,
			PhoneNumber: phoneNumber,
			JID:         sm.deviceJID(match),
			UpdatedAt:   info.ModTime(),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (sm *SessionManager) deviceJID(path string) string {
	container, err := sm.openStore(path)
	if err != nil {
		sm.logger.Warn("Failed to open session database", zap.String("path", path), zap.Error(err))
		return ""
	}
	defer func() {
		if err := container.Close(); err != nil {
			sm.logger.Warn("Failed to close session database", zap.String("path", path), zap.Error(err))
		}
	}()

	deviceStore, err := container.GetFirstDevice()
	if err != nil || deviceStore == nil || deviceStore.ID == nil {
		return ""
	}
	return deviceStore.ID.String()
}

func openSessionStore(path string) (*sqlstore.Container, error) {
	dbLog := waLog.Stdout("Database", "ERROR", true)
	return sqlstore.New("sqlite3", "file:"+path+"?_foreign_keys=on", dbLog)
}

// DeleteSession removes a device store and its pairing image
func (sm *SessionManager) DeleteSession(phoneNumber, sessionID string) error {
	dbPath := filepath.Join(sm.storeDir, storeFileName(phoneNumber, sessionID))
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session database: %w", err)
	}

	qrPath := filepath.Join(sm.storeDir, "qrcodes", phoneNumber+".png")
	if err := os.Remove(qrPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete QR code: %w", err)
	}

	sm.logger.Info("Session deleted",
		zap.String("phone_number", phoneNumber),
		zap.String("session_id", sessionID))
	return nil
}
