package sponge

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// SliceBytes is the number of plaintext bytes carried by one field element, one byte
// below the field's byte width so a slice never reaches the modulus.
const SliceBytes = fr.Bytes - 1

// MaxPlaintextBytes is the largest plaintext a single message can carry.
const MaxPlaintextBytes = MessageCapacity * SliceBytes

var (
	ErrPlaintextTooLong    = fmt.Errorf("plaintext longer than %d bytes", MaxPlaintextBytes)
	ErrInvalidPlaintext    = errors.New("invalid plaintext")
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
)

// PlaintextToMessage slices plaintext into SliceBytes-byte big-endian field elements,
// zero-padded to MessageCapacity slots. NUL bytes are rejected because a slice cannot
// encode leading zeros.
func PlaintextToMessage(plaintext string) ([MessageCapacity]fr.Element, error) {
	var msg [MessageCapacity]fr.Element
	data := []byte(plaintext)
	if len(data) > MaxPlaintextBytes {
		return msg, ErrPlaintextTooLong
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return msg, ErrInvalidPlaintext
	}
	for i := 0; i*SliceBytes < len(data); i++ {
		end := min((i+1)*SliceBytes, len(data))
		msg[i].SetBigInt(new(big.Int).SetBytes(data[i*SliceBytes : end]))
	}
	return msg, nil
}

// MessageToPlaintext reverses PlaintextToMessage; zero slots are padding.
func MessageToPlaintext(msg [MessageCapacity]fr.Element) (string, error) {
	var buf bytes.Buffer
	for i := range msg {
		b := msg[i].BigInt(new(big.Int)).Bytes()
		if len(b) > SliceBytes {
			return "", fmt.Errorf("%w: slot %d holds %d bytes", ErrInvalidPlaintext, i, len(b))
		}
		buf.Write(b)
	}
	if !utf8.Valid(buf.Bytes()) {
		return "", fmt.Errorf("%w: not UTF-8", ErrInvalidPlaintext)
	}
	return buf.String(), nil
}

// FormatCiphertext joins the ciphertext words as decimal strings separated by commas.
func FormatCiphertext(ct [CipherSize]fr.Element) string {
	tokens := make([]string, len(ct))
	for i := range ct {
		tokens[i] = ct[i].String()
	}
	return strings.Join(tokens, ",")
}

// ParseCiphertext parses the form written by FormatCiphertext.
func ParseCiphertext(s string) ([CipherSize]fr.Element, error) {
	var ct [CipherSize]fr.Element
	tokens := strings.Split(s, ",")
	if len(tokens) != CipherSize {
		return ct, fmt.Errorf("%w: %d words, want %d", ErrMalformedCiphertext, len(tokens), CipherSize)
	}
	for i, tok := range tokens {
		v, ok := new(big.Int).SetString(strings.TrimSpace(tok), 10)
		if !ok || v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
			return ct, fmt.Errorf("%w: word %d is not a field element", ErrMalformedCiphertext, i)
		}
		ct[i].SetBigInt(v)
	}
	return ct, nil
}

// EncryptString encrypts a UTF-8 plaintext under key and returns the wire form.
func EncryptString(plaintext string, key HashValue) (string, error) {
	k, err := key.Elements()
	if err != nil {
		return "", fmt.Errorf("invalid key: %w", err)
	}
	msg, err := PlaintextToMessage(plaintext)
	if err != nil {
		return "", err
	}
	return FormatCiphertext(Encrypt(msg, k)), nil
}

// DecryptString decrypts the wire form produced by EncryptString. A parity mismatch
// yields ErrInvalidCipherText.
func DecryptString(ciphertext string, key HashValue) (string, error) {
	k, err := key.Elements()
	if err != nil {
		return "", fmt.Errorf("invalid key: %w", err)
	}
	ct, err := ParseCiphertext(ciphertext)
	if err != nil {
		return "", err
	}
	msg, err := Decrypt(ct, k)
	if err != nil {
		return "", err
	}
	return MessageToPlaintext(msg)
}
