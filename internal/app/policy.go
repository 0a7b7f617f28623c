package app

// TransferPolicy bounds the memory held by one in-flight transfer
// accumulator. Zero means unlimited.
type TransferPolicy struct {
	MaxTransferBytes int64
}

// Allow reports whether accepting the next fragment keeps the transfer
// under the configured ceiling.
func (p TransferPolicy) Allow(pending, next int) bool {
	if p.MaxTransferBytes <= 0 {
		return true
	}
	return int64(pending)+int64(next) <= p.MaxTransferBytes
}
