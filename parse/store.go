package parse

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store is an ordered key = value parameter store. It is used to fill in the
// parameter files of the linear-theory solver and the particle realizer:
// a template file is loaded, individual keys are overwritten, and the result
// is written back out with the template's key order preserved.
type Store struct {
	keys []string
	vals map[string]string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{vals: map[string]string{}}
}

// LoadStore reads the parameter file fname into a Store. Comments and blank
// lines are dropped. Repeated keys keep their last value.
func LoadStore(fname string) (*Store, error) {
	bs, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	st := NewStore()
	lines := strings.Split(string(bs), "\n")
	for i := range lines {
		line := lines[i]
		if comment := strings.IndexAny(line, "#%"); comment != -1 {
			line = line[:comment]
		}
		line = strings.Trim(line, " \t\r")
		if len(line) == 0 {
			continue
		}

		eq := strings.Index(line, "=")
		if eq == -1 {
			return nil, fmt.Errorf(
				"I could not parse line %d of the parameter file %s because "+
					"it did not take the form of a variable assignment.",
				i+1, fname,
			)
		}
		key := strings.Trim(line[:eq], " \t")
		val := strings.Trim(line[eq+1:], " \t")
		if len(key) == 0 {
			return nil, fmt.Errorf(
				"Line %d of the parameter file %s assigns a value to an "+
					"empty variable name.", i+1, fname,
			)
		}
		st.Set(key, val)
	}

	return st, nil
}

// Get returns the value stored for key. Asking for a key that was never set
// is an error: callers use this to assert that a template carries the
// parameters they rely on.
func (st *Store) Get(key string) (string, error) {
	val, ok := st.vals[key]
	if !ok {
		return "", fmt.Errorf("The parameter '%s' is not set.", key)
	}
	return val, nil
}

// GetFloat returns the value stored for key, converted to a float64.
func (st *Store) GetFloat(key string) (float64, error) {
	val, err := st.Get(key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("The parameter '%s' is set to '%s', which is "+
			"not a float.", key, val)
	}
	return f, nil
}

// Set stores val under key, preserving the position of keys that already
// exist and appending new keys at the end.
func (st *Store) Set(key, val string) {
	if _, ok := st.vals[key]; !ok {
		st.keys = append(st.keys, key)
	}
	st.vals[key] = val
}

func (st *Store) SetInt(key string, val int64) {
	st.Set(key, strconv.FormatInt(val, 10))
}

func (st *Store) SetFloat(key string, val float64) {
	st.Set(key, strconv.FormatFloat(val, 'g', -1, 64))
}

// Keys returns the keys of the store in file order.
func (st *Store) Keys() []string {
	out := make([]string, len(st.keys))
	copy(out, st.keys)
	return out
}

// String renders the store as 'key = value' lines in file order.
func (st *Store) String() string {
	b := &strings.Builder{}
	for _, key := range st.keys {
		fmt.Fprintf(b, "%s = %s\n", key, st.vals[key])
	}
	return b.String()
}

// Write writes the store to the file fname.
func (st *Store) Write(fname string) error {
	return os.WriteFile(fname, []byte(st.String()), 0644)
}
