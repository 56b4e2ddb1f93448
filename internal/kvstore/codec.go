package kvstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// SchemaVersion is written into every envelope. Blobs without an envelope are
// schema 1: the raw JSON the first web client kept in local storage.
const SchemaVersion = 2

const (
	kindUser   = "user"
	kindTx     = "transaction"
	kindVIP    = "vip_level"
	kindToken  = "support_token"
	kindConfig = "app_config"
)

type envelope struct {
	Schema int             `json:"schema"`
	Kind   string          `json:"kind"`
	Data   json.RawMessage `json:"data"`
}

func encode(kind string, v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return json.Marshal(envelope{Schema: SchemaVersion, Kind: kind, Data: data})
}

// decode unwraps an envelope into v. It reports migrated=true when the blob
// was schema 1 and had to be upgraded.
func decode(kind string, raw []byte, v interface{}) (migrated bool, err error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("decode %s: %w", kind, err)
	}

	switch {
	case env.Schema == SchemaVersion:
		if env.Kind != kind {
			return false, fmt.Errorf("decode %s: blob holds %q", kind, env.Kind)
		}
		if err := json.Unmarshal(env.Data, v); err != nil {
			return false, fmt.Errorf("decode %s: %w", kind, err)
		}
		return false, nil
	case env.Schema == 0 && env.Data == nil:
		if err := decodeLegacy(kind, raw, v); err != nil {
			return false, fmt.Errorf("migrate %s: %w", kind, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("decode %s: unsupported schema %d", kind, env.Schema)
	}
}

// legacyUser is the user shape of schema 1: plaintext pin and a camelCase admin flag.
type legacyUser struct {
	ID                  string          `json:"id"`
	Username            string          `json:"username"`
	Phone               string          `json:"phone"`
	Email               string          `json:"email"`
	TotalBalance        decimal.Decimal `json:"total_balance"`
	WithdrawableBalance decimal.Decimal `json:"withdrawable_balance"`
	ActiveVIP           *int            `json:"active_vip"`
	VIPExpiryDate       *time.Time      `json:"vip_expiry_date"`
	ReferrerID          *string         `json:"referrer_id"`
	WithdrawPin         *string         `json:"withdraw_pin"`
	IsBlocked           bool            `json:"is_blocked"`
	IsAdmin             bool            `json:"isAdmin"`
	LastTaskCompletedAt *time.Time      `json:"last_task_completed_at"`
	CreatedAt           time.Time       `json:"created_at"`
}

func decodeLegacy(kind string, raw []byte, v interface{}) error {
	if kind != kindUser {
		// Other schema 1 records already match the current field names.
		return json.Unmarshal(raw, v)
	}

	user, ok := v.(*models.User)
	if !ok {
		return fmt.Errorf("legacy user decoded into %T", v)
	}

	var old legacyUser
	if err := json.Unmarshal(raw, &old); err != nil {
		return err
	}

	*user = models.User{
		ID:                  old.ID,
		Username:            old.Username,
		Phone:               old.Phone,
		Email:               old.Email,
		TotalBalance:        old.TotalBalance,
		WithdrawableBalance: old.WithdrawableBalance,
		ActiveVIP:           old.ActiveVIP,
		VIPExpiryDate:       old.VIPExpiryDate,
		ReferrerID:          old.ReferrerID,
		IsBlocked:           old.IsBlocked,
		IsAdmin:             old.IsAdmin,
		LastTaskCompletedAt: old.LastTaskCompletedAt,
		CreatedAt:           old.CreatedAt,
	}

	if old.WithdrawPin != nil && *old.WithdrawPin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*old.WithdrawPin), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash legacy withdraw_pin: %w", err)
		}
		user.WithdrawPinHash = string(hash)
	}
	return nil
}
