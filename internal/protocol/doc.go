// Package protocol implements the SCR text wire format spoken between the
// racing simulator and a driving client.
//
// The server sends one datagram per tick made of parenthesised groups:
//
//	(angle 0.003)(speedX 87.2)(track 7.1 7.5 ... 200)
//
// and the client answers with a command in the same shape:
//
//	(accel 1.000)(brake 0.000)(clutch 0.000)(gear 3.000)(steer -0.120)(focus -90 -45 0 45 90)(meta 0.000)
//
// [Decode] never fails: garbled telemetry yields a partially populated
// [Snapshot] whose accessors fall back to defaults. [Encode] is the single
// place where command ranges are enforced.
package protocol
