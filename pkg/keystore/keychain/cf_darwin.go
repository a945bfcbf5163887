// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of warp.
//
// warp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

//go:build darwin && cgo

package keychain

/*
#cgo LDFLAGS: -framework CoreFoundation -framework Security
#include <stdlib.h>
#include <CoreFoundation/CoreFoundation.h>
#include <Security/Security.h>

static CFMutableDictionaryRef warp_dict_new(void) {
	return CFDictionaryCreateMutable(kCFAllocatorDefault, 0,
		&kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
}

static void warp_dict_set(CFMutableDictionaryRef d, CFTypeRef k, CFTypeRef v) {
	CFDictionarySetValue(d, k, v);
}

static CFTypeRef warp_dict_get(CFDictionaryRef d, CFTypeRef k) {
	return CFDictionaryGetValue(d, k);
}

static CFTypeRef warp_array_get(CFArrayRef a, CFIndex i) {
	return CFArrayGetValueAtIndex(a, i);
}

static CFDataRef warp_data_new(const void *p, CFIndex n) {
	return CFDataCreate(kCFAllocatorDefault, (const UInt8 *)p, n);
}

static CFStringRef warp_string_new(const void *p, CFIndex n) {
	return CFStringCreateWithBytes(kCFAllocatorDefault, (const UInt8 *)p, n,
		kCFStringEncodingUTF8, false);
}

static CFNumberRef warp_sint32_new(SInt32 v) {
	return CFNumberCreate(kCFAllocatorDefault, kCFNumberSInt32Type, &v);
}

static SecAccessControlRef warp_access_control(CFErrorRef *err) {
	return SecAccessControlCreateWithFlags(kCFAllocatorDefault,
		kSecAttrAccessibleWhenUnlocked, kSecAccessControlUserPresence, err);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"time"
	"unsafe"
)

// cfOwned holds one CoreFoundation reference obtained under the create or
// copy rule and releases it exactly once.
type cfOwned struct {
	ref C.CFTypeRef
}

func own(ref C.CFTypeRef) *cfOwned {
	return &cfOwned{ref: ref}
}

// Release drops the reference. Later calls are no-ops.
func (o *cfOwned) Release() {
	if o.ref != 0 {
		C.CFRelease(o.ref)
		o.ref = 0
	}
}

func (o *cfOwned) valid() bool {
	return o.ref != 0
}

// cfDict is an owned mutable dictionary used to build queries.
type cfDict struct {
	*cfOwned
}

func newDict() (*cfDict, error) {
	ref := C.warp_dict_new()
	if ref == 0 {
		return nil, errors.New("keychain: CFDictionaryCreateMutable failed")
	}
	return &cfDict{own(C.CFTypeRef(ref))}, nil
}

func (d *cfDict) mutable() C.CFMutableDictionaryRef {
	return C.CFMutableDictionaryRef(d.ref)
}

func (d *cfDict) dict() C.CFDictionaryRef {
	return C.CFDictionaryRef(d.ref)
}

// set stores v under k. The dictionary retains both.
func (d *cfDict) set(k, v C.CFTypeRef) {
	C.warp_dict_set(d.mutable(), k, v)
}

// setOwned stores an owned value under k and releases the caller's
// reference, leaving the dictionary as the only owner.
func (d *cfDict) setOwned(k C.CFTypeRef, v *cfOwned) {
	defer v.Release()
	d.set(k, v.ref)
}

// cfBorrowed is a reference owned by an enclosing container. It must not
// be released and must not outlive the callback it is passed to.
type cfBorrowed struct {
	ref C.CFTypeRef
}

func (b cfBorrowed) typeID() C.CFTypeID {
	if b.ref == 0 {
		return 0
	}
	return C.CFGetTypeID(b.ref)
}

// get returns the value stored under k when b is a dictionary.
func (b cfBorrowed) get(k C.CFTypeRef) cfBorrowed {
	if b.typeID() != C.CFDictionaryGetTypeID() {
		return cfBorrowed{}
	}
	return cfBorrowed{ref: C.warp_dict_get(C.CFDictionaryRef(b.ref), k)}
}

// string converts a borrowed CFString to Go.
func (b cfBorrowed) string() (string, bool) {
	if b.typeID() != C.CFStringGetTypeID() {
		return "", false
	}
	return goString(C.CFStringRef(b.ref)), true
}

// bytes copies a borrowed CFData into Go memory.
func (b cfBorrowed) bytes() ([]byte, bool) {
	if b.typeID() != C.CFDataGetTypeID() {
		return nil, false
	}
	d := C.CFDataRef(b.ref)
	n := C.CFDataGetLength(d)
	if n == 0 {
		return []byte{}, true
	}
	return C.GoBytes(unsafe.Pointer(C.CFDataGetBytePtr(d)), C.int(n)), true
}

// date converts a borrowed CFDate to Go.
func (b cfBorrowed) date() (time.Time, bool) {
	if b.typeID() != C.CFDateGetTypeID() {
		return time.Time{}, false
	}
	return absoluteTime(float64(C.CFDateGetAbsoluteTime(C.CFDateRef(b.ref)))), true
}

// eachInArray calls fn with every element of an owned CFArray. Elements are
// borrowed from the array and are only valid during fn. Iteration stops
// when fn returns false.
func eachInArray(arr *cfOwned, fn func(item cfBorrowed) bool) {
	if !arr.valid() || C.CFGetTypeID(arr.ref) != C.CFArrayGetTypeID() {
		return
	}
	a := C.CFArrayRef(arr.ref)
	n := C.CFArrayGetCount(a)
	for i := C.CFIndex(0); i < n; i++ {
		if !fn(cfBorrowed{ref: C.warp_array_get(a, i)}) {
			return
		}
	}
}

// withBorrowed exposes an owned reference as borrowed for the duration of
// fn.
func withBorrowed(o *cfOwned, fn func(cfBorrowed)) {
	fn(cfBorrowed{ref: o.ref})
}

func newData(b []byte) (*cfOwned, error) {
	var p unsafe.Pointer
	if len(b) > 0 {
		p = unsafe.Pointer(&b[0])
	}
	ref := C.warp_data_new(p, C.CFIndex(len(b)))
	if ref == 0 {
		return nil, errors.New("keychain: CFDataCreate failed")
	}
	return own(C.CFTypeRef(ref)), nil
}

func newString(s string) (*cfOwned, error) {
	var p unsafe.Pointer
	if len(s) > 0 {
		p = unsafe.Pointer(unsafe.StringData(s))
	}
	ref := C.warp_string_new(p, C.CFIndex(len(s)))
	if ref == 0 {
		return nil, fmt.Errorf("keychain: CFStringCreateWithBytes failed for %q", s)
	}
	return own(C.CFTypeRef(ref)), nil
}

func newSInt32(v int32) (*cfOwned, error) {
	ref := C.warp_sint32_new(C.SInt32(v))
	if ref == 0 {
		return nil, errors.New("keychain: CFNumberCreate failed")
	}
	return own(C.CFTypeRef(ref)), nil
}

// newAccessControl requires the device to be unlocked and the user to be
// present to read the item's data.
func newAccessControl() (*cfOwned, error) {
	var cfErr C.CFErrorRef
	ref := C.warp_access_control(&cfErr)
	if ref == 0 {
		msg := "unknown error"
		if cfErr != 0 {
			errOwner := own(C.CFTypeRef(cfErr))
			defer errOwner.Release()
			desc := own(C.CFTypeRef(C.CFErrorCopyDescription(cfErr)))
			defer desc.Release()
			if desc.valid() {
				msg = goString(C.CFStringRef(desc.ref))
			}
		}
		return nil, fmt.Errorf("keychain: SecAccessControlCreateWithFlags: %s", msg)
	}
	return own(C.CFTypeRef(ref)), nil
}

func goString(s C.CFStringRef) string {
	n := C.CFStringGetLength(s)
	if n == 0 {
		return ""
	}
	size := C.CFStringGetMaximumSizeForEncoding(n, C.kCFStringEncodingUTF8) + 1
	buf := (*C.char)(C.malloc(C.size_t(size)))
	defer C.free(unsafe.Pointer(buf))
	if C.CFStringGetCString(s, buf, size, C.kCFStringEncodingUTF8) == 0 {
		return ""
	}
	return C.GoString(buf)
}

// statusError describes a Security framework status code.
type statusError struct {
	op     string
	status C.OSStatus
}

func (e *statusError) Error() string {
	msg := "unknown error"
	desc := own(C.CFTypeRef(C.SecCopyErrorMessageString(e.status, nil)))
	defer desc.Release()
	if desc.valid() {
		msg = goString(C.CFStringRef(desc.ref))
	}
	return fmt.Sprintf("keychain: %s: %s (OSStatus %d)", e.op, msg, int32(e.status))
}
