package password

// Hasher defines the interface for password hashing implementations
type Hasher interface {
	// Hash hashes a password and returns the stored form
	Hash(password string) (string, error)

	// Verify checks if the provided password matches the stored hash
	Verify(password, hashedPassword string) (bool, error)
}
