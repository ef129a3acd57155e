// Package db provides the database layer for the RentAll marketplace.
// It encapsulates all interactions with the underlying SQL database, managing
// data persistence for users, listings, bookings, reviews, messages, and
// payment transactions.
//
// This package is responsible for:
// - Establishing and managing database connections (`db.go`).
// - Defining database-specific data structures that map to SQL table schemas.
// - Implementing the repository interfaces from the `domain` package
//   (e.g., `ListingRepository`, `BookingRepository`).
// - Handling data conversion between domain structs and database-friendly
//   structs, including the use of `sql.Null*` types for nullable fields.
// - Managing database migrations (`migrations/`).
// - Providing common database utility types (`types.go`).
package db
