//go:build !windows

package device

// supportsSyncOutput indicates whether the terminal backend supports
// synchronized output, DEC private mode 2026 (CSI ?2026h / CSI ?2026l). Most
// non-Windows terminals support it, so this is enabled on all platforms except
// Windows.
const supportsSyncOutput = true
