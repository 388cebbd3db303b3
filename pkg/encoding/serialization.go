package encoding

// Serializable is implemented by payloads that have a binary wire form.
type Serializable[T any] interface {
	Serialize() ([]byte, error)
	Deserialize([]byte) error
}

// Decode allocates a fresh T and fills it from data.
func Decode[T any, PT interface {
	*T
	Serializable[T]
}](data []byte) (*T, error) {
	var v T
	if err := PT(&v).Deserialize(data); err != nil {
		return nil, err
	}
	return &v, nil
}
