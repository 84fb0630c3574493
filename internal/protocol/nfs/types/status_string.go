package types

import (
	"fmt"
	"strings"
)

// StatusString converts an NFS v3 status code to a human-readable string
// suitable for use as a log field or metric label.
//
// Decoders never interpret the status; this mapping exists purely for
// presentation. Unknown status codes are returned as "UNKNOWN_<code>".
//
// Example:
//
//	StatusString(NFS3OK)       // "NFS3_OK"
//	StatusString(NFS3ErrNoEnt) // "NFS3ERR_NOENT"
//	StatusString(999)          // "UNKNOWN_999"
func StatusString(status uint32) string {
	switch status {
	case NFS3OK:
		return "NFS3_OK"
	case NFS3ErrPerm:
		return "NFS3ERR_PERM"
	case NFS3ErrNoEnt:
		return "NFS3ERR_NOENT"
	case NFS3ErrIO:
		return "NFS3ERR_IO"
	case NFS3ErrAcces:
		return "NFS3ERR_ACCES"
	case NFS3ErrExist:
		return "NFS3ERR_EXIST"
	case NFS3ErrNotDir:
		return "NFS3ERR_NOTDIR"
	case NFS3ErrIsDir:
		return "NFS3ERR_ISDIR"
	case NFS3ErrInval:
		return "NFS3ERR_INVAL"
	case NFS3ErrFBig:
		return "NFS3ERR_FBIG"
	case NFS3ErrNoSpc:
		return "NFS3ERR_NOSPC"
	case NFS3ErrRofs:
		return "NFS3ERR_ROFS"
	case NFS3ErrNameTooLong:
		return "NFS3ERR_NAMETOOLONG"
	case NFS3ErrNotEmpty:
		return "NFS3ERR_NOTEMPTY"
	case NFS3ErrStale:
		return "NFS3ERR_STALE"
	case NFS3ErrRemote:
		return "NFS3ERR_REMOTE"
	case NFS3ErrBadHandle:
		return "NFS3ERR_BADHANDLE"
	case NFS3ErrNotSync:
		return "NFS3ERR_NOT_SYNC"
	case NFS3ErrBadCookie:
		return "NFS3ERR_BAD_COOKIE"
	case NFS3ErrNotSupp:
		return "NFS3ERR_NOTSUPP"
	case NFS3ErrTooSmall:
		return "NFS3ERR_TOOSMALL"
	case NFS3ErrServerFault:
		return "NFS3ERR_SERVERFAULT"
	case NFS3ErrBadType:
		return "NFS3ERR_BADTYPE"
	case NFS3ErrJukebox:
		return "NFS3ERR_JUKEBOX"
	default:
		return fmt.Sprintf("UNKNOWN_%d", status)
	}
}

var procedureNames = map[uint32]string{
	NFSProcNull:        "NULL",
	NFSProcGetAttr:     "GETATTR",
	NFSProcSetAttr:     "SETATTR",
	NFSProcLookup:      "LOOKUP",
	NFSProcAccess:      "ACCESS",
	NFSProcReadLink:    "READLINK",
	NFSProcRead:        "READ",
	NFSProcWrite:       "WRITE",
	NFSProcCreate:      "CREATE",
	NFSProcMkdir:       "MKDIR",
	NFSProcSymlink:     "SYMLINK",
	NFSProcMknod:       "MKNOD",
	NFSProcRemove:      "REMOVE",
	NFSProcRmdir:       "RMDIR",
	NFSProcRename:      "RENAME",
	NFSProcLink:        "LINK",
	NFSProcReadDir:     "READDIR",
	NFSProcReadDirPlus: "READDIRPLUS",
	NFSProcFsStat:      "FSSTAT",
	NFSProcFsInfo:      "FSINFO",
	NFSProcPathConf:    "PATHCONF",
	NFSProcCommit:      "COMMIT",
}

// ProcedureName returns the RFC 1813 name of an NFSv3 procedure, or
// "PROC_<n>" for numbers outside the table.
func ProcedureName(proc uint32) string {
	if name, ok := procedureNames[proc]; ok {
		return name
	}
	return fmt.Sprintf("PROC_%d", proc)
}

// StableString names a WRITE stability level.
func StableString(stable uint32) string {
	switch stable {
	case WriteUnstable:
		return "UNSTABLE"
	case WriteDataSync:
		return "DATA_SYNC"
	case WriteFileSync:
		return "FILE_SYNC"
	default:
		return fmt.Sprintf("STABLE_%d", stable)
	}
}

// CreateModeString names a CREATE mode.
func CreateModeString(mode uint32) string {
	switch mode {
	case CreateUnchecked:
		return "UNCHECKED"
	case CreateGuarded:
		return "GUARDED"
	case CreateExclusive:
		return "EXCLUSIVE"
	default:
		return fmt.Sprintf("MODE_%d", mode)
	}
}

var accessBits = []struct {
	bit  uint32
	name string
}{
	{AccessRead, "READ"},
	{AccessLookup, "LOOKUP"},
	{AccessModify, "MODIFY"},
	{AccessExtend, "EXTEND"},
	{AccessDelete, "DELETE"},
	{AccessExecute, "EXECUTE"},
}

// AccessString renders an ACCESS bitmap as "READ|LOOKUP". Unknown bits are
// appended in hex; an empty bitmap is "NONE".
func AccessString(access uint32) string {
	if access == 0 {
		return "NONE"
	}
	var names []string
	for _, a := range accessBits {
		if access&a.bit != 0 {
			names = append(names, a.name)
			access &^= a.bit
		}
	}
	if access != 0 {
		names = append(names, fmt.Sprintf("0x%x", access))
	}
	return strings.Join(names, "|")
}
