// Package save implements JSON serialization of the economy's subsystem
// blobs. Each subsystem is stored under its own key.
package save

import (
	"encoding/json"
	"time"

	"github.com/nathoo/econcore/engine/bank"
	"github.com/nathoo/econcore/engine/exchange"
	"github.com/nathoo/econcore/engine/shop"
	"github.com/nathoo/econcore/types"
)

// Version is written into the economy blob.
const Version = "1.0.0"

// Store keys, one per subsystem plus the backup archive.
const (
	KeyEconomy  = "economyData"
	KeyBank     = "bankSystemData"
	KeyExchange = "exchangeSystemData"
	KeyShop     = "shopSystemData"
	KeyBackup   = "economyBackup"
)

// Keys lists the subsystem keys in save order.
var Keys = []string{KeyEconomy, KeyBank, KeyExchange, KeyShop}

// EconomyData is the accounts blob.
type EconomyData struct {
	Version     string                   `json:"version"`
	Timestamp   time.Time                `json:"timestamp"`
	PlayerData  map[string]types.Account `json:"playerData"`
	GlobalStats types.GlobalStats        `json:"globalStats"`
}

// BankData is the bank blob.
type BankData struct {
	bank.Snapshot
	Timestamp time.Time `json:"timestamp"`
}

// ExchangeData is the exchange blob.
type ExchangeData struct {
	exchange.Snapshot
	Timestamp time.Time `json:"timestamp"`
}

// ShopData is the shop blob.
type ShopData struct {
	shop.Snapshot
	Timestamp time.Time `json:"timestamp"`
}

// Backup archives every subsystem blob verbatim. A nil field means the key
// was empty when the backup was taken.
type Backup struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	EconomyData  json.RawMessage `json:"economyData"`
	BankData     json.RawMessage `json:"bankData"`
	ExchangeData json.RawMessage `json:"exchangeData"`
	ShopData     json.RawMessage `json:"shopData"`
}

// Blob returns the archived blob for a subsystem key.
func (b *Backup) Blob(key string) json.RawMessage {
	switch key {
	case KeyEconomy:
		return b.EconomyData
	case KeyBank:
		return b.BankData
	case KeyExchange:
		return b.ExchangeData
	case KeyShop:
		return b.ShopData
	}
	return nil
}

// SetBlob stores the blob for a subsystem key.
func (b *Backup) SetBlob(key string, blob json.RawMessage) {
	switch key {
	case KeyEconomy:
		b.EconomyData = blob
	case KeyBank:
		b.BankData = blob
	case KeyExchange:
		b.ExchangeData = blob
	case KeyShop:
		b.ShopData = blob
	}
}

// Encode serializes a blob.
func Encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// LoadEconomy deserializes the accounts blob.
func LoadEconomy(data []byte) (*EconomyData, error) {
	var d EconomyData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	// Ensure maps are never nil after load.
	if d.PlayerData == nil {
		d.PlayerData = map[string]types.Account{}
	}
	for name, acc := range d.PlayerData {
		if acc.Transactions == nil {
			acc.Transactions = []types.Transaction{}
			d.PlayerData[name] = acc
		}
	}
	return &d, nil
}

// LoadBank deserializes the bank blob.
func LoadBank(data []byte) (*BankData, error) {
	var d BankData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.BankAccounts == nil {
		d.BankAccounts = map[string]types.BankAccount{}
	}
	if d.Loans == nil {
		d.Loans = map[string]types.Loan{}
	}
	if d.Investments == nil {
		d.Investments = map[string]types.Investment{}
	}
	return &d, nil
}

// LoadExchange deserializes the exchange blob.
func LoadExchange(data []byte) (*ExchangeData, error) {
	var d ExchangeData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.ExchangeRates == nil {
		d.ExchangeRates = map[string]exchange.RateState{}
	}
	if d.DailyLimits == nil {
		d.DailyLimits = map[string]map[string]types.DailyUsage{}
	}
	if d.PlayerExchanges == nil {
		d.PlayerExchanges = map[string][]types.ExchangeRecord{}
	}
	return &d, nil
}

// LoadShop deserializes the shop blob.
func LoadShop(data []byte) (*ShopData, error) {
	var d ShopData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.Shops == nil {
		d.Shops = map[string]types.Shop{}
	}
	if d.PlayerPurchases == nil {
		d.PlayerPurchases = map[string][]types.Purchase{}
	}
	return &d, nil
}

// LoadBackup deserializes a backup archive. Blobs stored as JSON null come
// back as nil.
func LoadBackup(data []byte) (*Backup, error) {
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	for _, key := range Keys {
		if blob := b.Blob(key); string(blob) == "null" {
			b.SetBlob(key, nil)
		}
	}
	return &b, nil
}
