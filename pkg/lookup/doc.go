// Package lookup resolves Brazilian postal codes (CEP) into street,
// neighborhood, city and state using a BrasilAPI-compatible HTTP service.
package lookup
