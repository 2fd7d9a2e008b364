package storage

import (
	"fmt"

	"github.com/jmcleod/ncpass/internal/util"
)

const (
	envelopeVersion = 1

	schemeAESGCM = "aes256gcm"
	schemeRaw    = "raw"
)

// Envelope is a stored record. Sealed envelopes hold AES-256-GCM ciphertext;
// raw envelopes hold non-secret bytes such as the index salt.
type Envelope struct {
	Ver        int    `json:"ver"`
	Scheme     string `json:"scheme"`
	Nonce      []byte `json:"nonce,omitempty"`
	Ciphertext []byte `json:"ciphertext"`
}

// SealRecord encrypts plaintext into an Envelope using the given record key and AAD.
func SealRecord(recordKey, plaintext, aad []byte) (*Envelope, error) {
	sealed, err := util.EncryptAESWithAAD(plaintext, recordKey, aad)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Ver:        envelopeVersion,
		Scheme:     schemeAESGCM,
		Nonce:      sealed[:util.GCMNonceSize],
		Ciphertext: sealed[util.GCMNonceSize:],
	}, nil
}

// OpenRecord decrypts an Envelope using the given record key and AAD.
func OpenRecord(recordKey []byte, envelope *Envelope, aad []byte) ([]byte, error) {
	if envelope.Ver != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version: %d", envelope.Ver)
	}
	if envelope.Scheme != schemeAESGCM {
		return nil, fmt.Errorf("unsupported envelope scheme: %s", envelope.Scheme)
	}
	full := make([]byte, 0, len(envelope.Nonce)+len(envelope.Ciphertext))
	full = append(full, envelope.Nonce...)
	full = append(full, envelope.Ciphertext...)
	return util.DecryptAESWithAAD(full, recordKey, aad)
}

// RawRecord wraps non-secret bytes in an Envelope.
func RawRecord(data []byte) *Envelope {
	return &Envelope{Ver: envelopeVersion, Scheme: schemeRaw, Ciphertext: util.CopyBytes(data)}
}

// OpenRaw returns the bytes of a raw Envelope.
func OpenRaw(envelope *Envelope) ([]byte, error) {
	if envelope.Ver != envelopeVersion || envelope.Scheme != schemeRaw {
		return nil, fmt.Errorf("unsupported raw envelope: ver=%d scheme=%s", envelope.Ver, envelope.Scheme)
	}
	return util.CopyBytes(envelope.Ciphertext), nil
}

// Clone returns a deep copy of env.
func (env *Envelope) Clone() *Envelope {
	if env == nil {
		return nil
	}
	return &Envelope{
		Ver:        env.Ver,
		Scheme:     env.Scheme,
		Nonce:      append([]byte(nil), env.Nonce...),
		Ciphertext: append([]byte(nil), env.Ciphertext...),
	}
}
