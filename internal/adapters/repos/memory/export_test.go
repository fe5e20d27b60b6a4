package memory

func LockCount(s *Store) int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	return len(s.locks)
}
