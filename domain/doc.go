// Package domain defines the core business entities of the RentAll marketplace.
// It contains the primary domain models, such as User, Listing, Booking, Review,
// Message, and PaymentTransaction, as well as the repository interfaces that
// define the contracts for data persistence.
//
// This package serves as the central point for application-wide types and business rules,
// ensuring a clean separation between the application's core logic and its implementation details,
// such as the database, HTTP layer, or external services. By defining interfaces for repositories,
// the domain package remains independent of the data storage technology.
package domain
