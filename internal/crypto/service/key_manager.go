package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	cryptoDomain "github.com/allisson/privacy/internal/crypto/domain"
	apperrors "github.com/allisson/privacy/internal/errors"
)

const (
	// maxCacheAge bounds cache growth: entries older than this are evicted
	// on sweep regardless of their explicit expiry.
	maxCacheAge = 24 * time.Hour

	// fingerprintLength is the number of hex characters kept from the
	// SHA-256 digest of a public key.
	fingerprintLength = 16

	defaultDerivedKeyLength = 32
	defaultSaltLength       = 32
)

// Config holds the key manager settings resolved from SecurityConfig.
type Config struct {
	Passphrase        string
	RSAKeySize        int
	CertExpiryDays    int
	ScryptCost        int
	ScryptBlockSize   int
	ScryptParallelism int
}

// KeyManagerService implements KeyManager.
//
// Generated private keys are exported encrypted at rest: the PKCS#8 DER is
// sealed with AES-256-GCM under an scrypt key derived from the resolved
// passphrase, with salt and nonce carried in the PEM headers. The cache
// holds public keys and metadata only, never private material.
type KeyManagerService struct {
	cfg        Config
	signingKey *rsa.PrivateKey

	mu        sync.RWMutex
	cache     map[uuid.UUID]*cryptoDomain.CachedKey
	generated atomic.Uint64
}

// NewKeyManager creates a KeyManagerService and generates the engine's
// signing key pair. The signing private key is held in memory only and is
// consumed by the certificate authority.
func NewKeyManager(cfg Config) (*KeyManagerService, error) {
	signingKey, err := rsa.GenerateKey(rand.Reader, cfg.RSAKeySize)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrKeyGeneration, err.Error())
	}

	return &KeyManagerService{
		cfg:        cfg,
		signingKey: signingKey,
		cache:      make(map[uuid.UUID]*cryptoDomain.CachedKey),
	}, nil
}

// GenerateKeyPair generates an RSA key pair of the requested size.
func (k *KeyManagerService) GenerateKeyPair(
	ctx context.Context,
	opts GenerateOptions,
) (*cryptoDomain.KeyPair, error) {
	keySize := opts.KeySize
	if keySize == 0 {
		keySize = k.cfg.RSAKeySize
	}
	if keySize < 2048 {
		return nil, cryptoDomain.ErrKeySizeTooSmall
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrKeyGeneration, err.Error())
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrKeyGeneration, err.Error())
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	privateDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrKeyGeneration, err.Error())
	}
	encryptedPEM, err := k.encryptPrivateKey(privateDER)
	cryptoDomain.Zero(privateDER)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	metadata := cryptoDomain.KeyMetadata{
		ID:          uuid.Must(uuid.NewV7()),
		Algorithm:   cryptoDomain.AlgorithmRSA,
		KeySizeBits: keySize,
		Fingerprint: k.Fingerprint(publicPEM),
		GeneratedAt: now,
		ExpiresAt:   now.AddDate(0, 0, k.cfg.CertExpiryDays),
	}

	k.mu.Lock()
	k.cache[metadata.ID] = &cryptoDomain.CachedKey{
		PublicKeyPEM: publicPEM,
		Metadata:     metadata,
		CachedAt:     now,
	}
	k.mu.Unlock()
	k.generated.Add(1)

	return &cryptoDomain.KeyPair{
		PublicKeyPEM:           publicPEM,
		EncryptedPrivateKeyPEM: encryptedPEM,
		Metadata:               metadata,
	}, nil
}

// DeriveKey derives a key from a password using scrypt. The salt is random
// unless supplied; cost parameters default to the configured values. Invalid
// cost combinations surface as a derivation error.
func (k *KeyManagerService) DeriveKey(
	ctx context.Context,
	password string,
	opts DeriveOptions,
) (*cryptoDomain.DerivedKey, error) {
	if password == "" {
		return nil, cryptoDomain.ErrEmptyPassword
	}

	cost := opts.Cost
	if cost == 0 {
		cost = k.cfg.ScryptCost
	}
	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = k.cfg.ScryptBlockSize
	}
	parallelism := opts.Parallelism
	if parallelism == 0 {
		parallelism = k.cfg.ScryptParallelism
	}
	keyLength := opts.KeyLength
	if keyLength == 0 {
		keyLength = defaultDerivedKeyLength
	}

	salt := opts.Salt
	if salt == nil {
		salt = make([]byte, defaultSaltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDerivation, err.Error())
		}
	}

	key, err := scrypt.Key([]byte(password), salt, cost, blockSize, parallelism, keyLength)
	if err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrInvalidScryptParams, err.Error())
	}

	digest := sha256.New()
	digest.Write(key)
	digest.Write(salt)

	return &cryptoDomain.DerivedKey{
		Key:  key,
		Salt: salt,
		Metadata: cryptoDomain.DerivedKeyMetadata{
			Algorithm:   cryptoDomain.AlgorithmScrypt,
			Cost:        cost,
			BlockSize:   blockSize,
			Parallelism: parallelism,
			KeyLength:   keyLength,
		},
		VerificationHash: hex.EncodeToString(digest.Sum(nil)),
	}, nil
}

// Fingerprint computes the first 16 hex characters of the SHA-256 digest of
// a public key. The digest covers the DER bytes so the result is stable
// across PEM re-encodings.
func (k *KeyManagerService) Fingerprint(publicKeyPEM []byte) string {
	material := publicKeyPEM
	if block, _ := pem.Decode(publicKeyPEM); block != nil {
		material = block.Bytes
	}

	digest := sha256.Sum256(material)
	return hex.EncodeToString(digest[:])[:fingerprintLength]
}

// SigningKey returns the engine's RSA signing key.
func (k *KeyManagerService) SigningKey() *rsa.PrivateKey {
	return k.signingKey
}

// SigningPublicKeyPEM returns the PEM encoding of the signing public key.
func (k *KeyManagerService) SigningPublicKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&k.signingKey.PublicKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrKeyGeneration, err.Error())
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// SweepExpired evicts cache entries whose expiry has passed and any entry
// older than maxCacheAge. Returns the number of evicted entries.
func (k *KeyManagerService) SweepExpired(now time.Time) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	evicted := 0
	for id, entry := range k.cache {
		if entry.Expired(now) || now.Sub(entry.CachedAt) > maxCacheAge {
			delete(k.cache, id)
			evicted++
		}
	}
	return evicted
}

// CacheSize returns the number of cached key entries.
func (k *KeyManagerService) CacheSize() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.cache)
}

// KeysGenerated returns the total number of key pairs generated.
func (k *KeyManagerService) KeysGenerated() uint64 {
	return k.generated.Load()
}

// Close clears the metadata cache.
func (k *KeyManagerService) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	clear(k.cache)
}

// encryptPrivateKey seals a PKCS#8 DER private key with AES-256-GCM under an
// scrypt key derived from the passphrase. Salt and nonce travel in the PEM
// headers so the key can be recovered with the passphrase alone.
func (k *KeyManagerService) encryptPrivateKey(privateDER []byte) ([]byte, error) {
	salt := make([]byte, defaultSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrKeyGeneration, err.Error())
	}

	wrappingKey, err := k.wrappingKey(salt)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(wrappingKey)

	aead, err := NewAESGCM(wrappingKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrKeyGeneration, err.Error())
	}

	ciphertext, nonce, err := aead.Encrypt(privateDER)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrKeyGeneration, err.Error())
	}

	return pem.EncodeToMemory(&pem.Block{
		Type: "ENCRYPTED PRIVATE KEY",
		Headers: map[string]string{
			"KDF":   "scrypt",
			"Salt":  hex.EncodeToString(salt),
			"Nonce": hex.EncodeToString(nonce),
		},
		Bytes: ciphertext,
	}), nil
}

// DecryptPrivateKey recovers the PKCS#8 DER private key from an encrypted
// PEM export. The caller owns the returned bytes and should zero them.
func (k *KeyManagerService) DecryptPrivateKey(encryptedPEM []byte) ([]byte, error) {
	block, _ := pem.Decode(encryptedPEM)
	if block == nil || block.Type != "ENCRYPTED PRIVATE KEY" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "not an encrypted private key PEM")
	}

	salt, err := hex.DecodeString(block.Headers["Salt"])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed salt header")
	}
	nonce, err := hex.DecodeString(block.Headers["Nonce"])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed nonce header")
	}

	wrappingKey, err := k.wrappingKey(salt)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(wrappingKey)

	aead, err := NewAESGCM(wrappingKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrKeyGeneration, err.Error())
	}

	return aead.Decrypt(block.Bytes, nonce)
}

// wrappingKey derives the 32-byte private-key wrapping key from the
// passphrase and salt.
func (k *KeyManagerService) wrappingKey(salt []byte) ([]byte, error) {
	key, err := scrypt.Key(
		[]byte(k.cfg.Passphrase),
		salt,
		k.cfg.ScryptCost,
		k.cfg.ScryptBlockSize,
		k.cfg.ScryptParallelism,
		32,
	)
	if err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrInvalidScryptParams, err.Error())
	}
	return key, nil
}
