package auth

import "testing"

func TestHashPassword(t *testing.T) {
	t.Run("should verify the original password against its hash", func(t *testing.T) {
		hash, err := HashPassword("hunter2boogaloo")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if hash == "hunter2boogaloo" {
			t.Fatalf("\nwanted:\nhashed value\ngot:\nplaintext")
		}

		if !CheckPassword(hash, "hunter2boogaloo") {
			t.Fatalf("\nwanted:\ntrue\ngot:\nfalse")
		}
	})

	t.Run("should salt hashes so equal passwords hash differently", func(t *testing.T) {
		first, err := HashPassword("hunter2boogaloo")
		if err != nil {
			t.Fatalf("hashing password: %v", err)
		}
		second, err := HashPassword("hunter2boogaloo")
		if err != nil {
			t.Fatalf("hashing password: %v", err)
		}

		if first == second {
			t.Fatalf("\nwanted:\ndifferent hashes\ngot:\n%q twice", first)
		}
	})
}

func TestCheckPassword(t *testing.T) {
	t.Run("should reject the wrong password", func(t *testing.T) {
		hash, err := HashPassword("hunter2boogaloo")
		if err != nil {
			t.Fatalf("hashing password: %v", err)
		}

		if CheckPassword(hash, "hunter3") {
			t.Fatalf("\nwanted:\nfalse\ngot:\ntrue")
		}
	})

	t.Run("should reject a malformed stored hash", func(t *testing.T) {
		if CheckPassword("not-a-bcrypt-hash", "hunter2boogaloo") {
			t.Fatalf("\nwanted:\nfalse\ngot:\ntrue")
		}
	})
}
