package sqlite

// FileDSN builds the DSN for an on-disk database. `_txlock=immediate` makes
// every write transaction take the write lock at BEGIN, busy_timeout keeps
// concurrent writers queuing instead of failing, and WAL lets readers proceed
// while a writer holds the lock.
func FileDSN(path string) string {
	return "file:" + path + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
