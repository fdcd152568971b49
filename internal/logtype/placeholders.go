package logtype

import "fmt"

func indexOf(ps []Placeholder, pid string) int {
	for i, p := range ps {
		if p.ID == pid {
			return i
		}
	}
	return -1
}

// AddPlaceholder appends a placeholder of kind to the canonical record. An
// empty name becomes DefaultPlaceholderName.
func (s *Store) AddPlaceholder(id string, kind Kind, name string) (Placeholder, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Placeholder{}, err
	}
	if name == "" {
		name = DefaultPlaceholderName
	}
	p := NewPlaceholder(kind, name)
	_, err := s.edit(id, UpdateOptions{BumpTimestamp: true}, func(lt *LogType) error {
		lt.Placeholders = append(lt.Placeholders, p)
		return nil
	})
	if err != nil {
		return Placeholder{}, err
	}
	return p, nil
}

// UpdatePlaceholder applies patch to placeholder pid. The placeholder id
// never changes.
func (s *Store) UpdatePlaceholder(id, pid string, patch PlaceholderPatch) (Placeholder, error) {
	if patch.Kind != nil {
		if _, err := ParseKind(string(*patch.Kind)); err != nil {
			return Placeholder{}, err
		}
	}
	var out Placeholder
	_, err := s.edit(id, UpdateOptions{BumpTimestamp: true}, func(lt *LogType) error {
		i := indexOf(lt.Placeholders, pid)
		if i < 0 {
			return fmt.Errorf("%q: %w", pid, ErrPlaceholderNotFound)
		}
		out = patch.apply(lt.Placeholders[i])
		out.ID = pid
		lt.Placeholders[i] = out
		return nil
	})
	if err != nil {
		return Placeholder{}, err
	}
	return out, nil
}

// RemovePlaceholder drops placeholder pid from the canonical record.
func (s *Store) RemovePlaceholder(id, pid string) error {
	_, err := s.edit(id, UpdateOptions{BumpTimestamp: true}, func(lt *LogType) error {
		i := indexOf(lt.Placeholders, pid)
		if i < 0 {
			return fmt.Errorf("%q: %w", pid, ErrPlaceholderNotFound)
		}
		lt.Placeholders = append(lt.Placeholders[:i], lt.Placeholders[i+1:]...)
		return nil
	})
	return err
}

// MovePlaceholder moves placeholder pid to index, clamped to the list bounds.
func (s *Store) MovePlaceholder(id, pid string, index int) error {
	_, err := s.edit(id, UpdateOptions{BumpTimestamp: true}, func(lt *LogType) error {
		i := indexOf(lt.Placeholders, pid)
		if i < 0 {
			return fmt.Errorf("%q: %w", pid, ErrPlaceholderNotFound)
		}
		p := lt.Placeholders[i]
		rest := append(lt.Placeholders[:i:i], lt.Placeholders[i+1:]...)
		index = max(0, min(index, len(rest)))
		moved := make([]Placeholder, 0, len(lt.Placeholders))
		moved = append(moved, rest[:index]...)
		moved = append(moved, p)
		moved = append(moved, rest[index:]...)
		lt.Placeholders = moved
		return nil
	})
	return err
}
