package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/skip2/go-qrcode"

	"github.com/youkaichao/WtfTicket/internal/models"
)

// Generator renders a ticket as a QR image whose payload is AES-encrypted,
// so a scanned code can only be minted by a holder of the shared secret.
type Generator struct {
	secret []byte
}

// payload is what actually goes into the code; the scanner only needs the
// lookup key plus enough to show on screen.
type payload struct {
	UniqueID   string `json:"unique_id"`
	StudentID  string `json:"student_id"`
	ActivityID int64  `json:"activity_id"`
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// GenerateTicketQR returns a 256px PNG for the ticket.
func (g *Generator) GenerateTicketQR(ticket *models.Ticket) ([]byte, error) {
	data, err := json.Marshal(payload{
		UniqueID:   ticket.UniqueID,
		StudentID:  ticket.StudentID,
		ActivityID: ticket.ActivityID,
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// DecodePayload reverses the encryption on a scanned code's contents and
// returns the ticket unique id it carries.
func (g *Generator) DecodePayload(encoded string) (string, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(ciphertext) < aes.BlockSize {
		return "", errors.New("qr payload too short")
	}

	block, err := aes.NewCipher(g.secret)
	if err != nil {
		return "", err
	}
	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", errors.New("qr payload is not a ticket")
	}
	return p.UniqueID, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
