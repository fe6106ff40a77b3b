// Package bignum provides a small, typed wrapper around math/big for the
// fixed-width, little-endian-on-the-wire arithmetic the SRP6 engine needs.
//
// The reference implementation this protocol was ported from manipulates
// OpenSSL BIGNUM pointers directly and reverses byte buffers in place to
// cross between little-endian wire form and big-endian arithmetic form.
// Int replaces that with a pure value type: every conversion produces a new
// slice, and the little-endian/big-endian boundary is crossed in exactly
// one place (FromLE / ToLE).
package bignum

import (
	"math/big"

	"github.com/legacyrealm/realmd/internal/byteutil"
)

// Int is an arbitrary-precision integer used for SRP6 arithmetic. The zero
// value is not valid; use FromLE, FromUint64, or the arithmetic constructors
// below.
type Int struct {
	v *big.Int
}

// FromLE interprets buf as a little-endian encoded unsigned integer.
func FromLE(buf []byte) Int {
	return Int{v: new(big.Int).SetBytes(byteutil.Reverse(buf))}
}

// FromUint64 wraps a small constant, e.g. the generator g or multiplier k.
func FromUint64(u uint64) Int {
	return Int{v: new(big.Int).SetUint64(u)}
}

// ToLE encodes the integer as a little-endian byte string, zero-right-padded
// to width bytes. It panics if the natural encoding exceeds width, which
// would indicate a protocol-level invariant violation (spec.md §3: all
// fixed-width wire fields are 32 bytes or less by construction).
func (i Int) ToLE(width int) []byte {
	be := i.v.Bytes()
	if len(be) > width {
		panic("bignum: value does not fit in requested width")
	}
	le := byteutil.Reverse(be)
	return byteutil.PadRight(le, width)
}

// IsZero reports whether the integer is zero.
func (i Int) IsZero() bool {
	return i.v.Sign() == 0
}

// ModMulAdd computes (k*x + y) mod n — the shape needed for B = (k·v + g^b) mod N.
func ModMulAdd(k, x, y, n Int) Int {
	t := new(big.Int).Mul(k.v, x.v)
	t.Add(t, y.v)
	t.Mod(t, n.v)
	return Int{v: t}
}

// ModExp computes base^exp mod n.
func ModExp(base, exp, n Int) Int {
	return Int{v: new(big.Int).Exp(base.v, exp.v, n.v)}
}

// ModMul computes a*b mod n.
func ModMul(a, b, n Int) Int {
	t := new(big.Int).Mul(a.v, b.v)
	t.Mod(t, n.v)
	return Int{v: t}
}

// Mod computes a mod n.
func Mod(a, n Int) Int {
	return Int{v: new(big.Int).Mod(a.v, n.v)}
}

// ModSub computes (a - b) mod n, normalizing negative intermediate results
// into [0, n) the way Go's math/big.Int.Mod already does.
func ModSub(a, b, n Int) Int {
	t := new(big.Int).Sub(a.v, b.v)
	t.Mod(t, n.v)
	return Int{v: t}
}

// Add computes a+b with no modular reduction, for exponents that are not
// themselves reduced mod N (e.g. the client-side SRP6 exponent a+u*x).
func Add(a, b Int) Int {
	return Int{v: new(big.Int).Add(a.v, b.v)}
}
