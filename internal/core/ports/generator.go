package ports

// GeneratorOptions selects the length and character classes of a generated password.
type GeneratorOptions struct {
	Length  int
	Upper   bool
	Lower   bool
	Numbers bool
	Symbols bool
}

// GeneratedPassword is a fresh password together with its strength score.
type GeneratedPassword struct {
	Password string `json:"password"`
	Strength int    `json:"strength"`
}

type PasswordGenerator interface {
	Generate(opts GeneratorOptions) (*GeneratedPassword, error)
}
