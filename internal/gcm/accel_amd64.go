// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

//go:build amd64 && !noasm

package gcm

import "golang.org/x/sys/cpu"

func init() {
	accelerated = cpu.X86.HasAES && cpu.X86.HasPCLMULQDQ
}
