package compiler

// Op is a single bytecode opcode byte. The catalogue below is reproduced
// byte-for-byte from the original compiler's OpCode enum; values are load
// bearing for anything that consumes a CASM artifact, so they must never be
// renumbered.
type Op byte

const (
	OpHalt     Op = 0x00
	OpPushInt  Op = 0x01
	OpPushStr  Op = 0x02
	OpSyscall  Op = 0x03
	OpStore    Op = 0x04
	OpLoad     Op = 0x05
	OpAdd      Op = 0x06
	OpSub      Op = 0x07
	OpMul      Op = 0x08
	OpDiv      Op = 0x09
	OpJmp      Op = 0x0A
	OpJz       Op = 0x0B
	OpCall     Op = 0x0C
	OpRet      Op = 0x0D
	OpForIter  Op = 0x0E
	OpTryEnter Op = 0x0F
	OpTryExit  Op = 0x10
	OpRaise    Op = 0x11

	OpMod      Op = 0x12
	OpBitAnd   Op = 0x13
	OpBitOr    Op = 0x14
	OpBitXor   Op = 0x15
	OpShl      Op = 0x16
	OpShr      Op = 0x17
	OpBitNot   Op = 0x18
	OpCmpEq    Op = 0x19
	OpCmpNe    Op = 0x1A
	OpCmpLt    Op = 0x1B
	OpCmpGt    Op = 0x1C
	OpCmpLe    Op = 0x1D
	OpCmpGe    Op = 0x1E
	OpLogAnd   Op = 0x1F
	OpLogOr    Op = 0x20
	OpLogNot   Op = 0x21

	OpMalloc   Op = 0x50
	OpFree     Op = 0x51
	OpReadAddr Op = 0x52
	OpWriteAddr Op = 0x53
	OpAddrOf   Op = 0x54

	OpDictNew    Op = 0x92
	OpDictSet    Op = 0x93
	OpListNew    Op = 0x95
	OpListAppend Op = 0x96
)

// Syscall is a syscall id pushed as the single one-byte operand of
// OpSyscall. The table below is transcribed verbatim from the dispatch
// chain in the original compiler's parseExpression: every name the parser
// recognizes inside a call expression maps to exactly one of these ids (or,
// for suffix-matched methods, to one of these ids plus an argument count
// pushed ahead of it).
type Syscall uint8

const (
	SysPrintf Syscall = 0x60
	SysPuts   Syscall = 0x61
	SysLen    Syscall = 0x63

	SysFopen  Syscall = 0x70
	SysFprintf Syscall = 0x71
	SysFclose Syscall = 0x72

	SysCtime Syscall = 0x81

	SysStrLower      Syscall = 0xA0
	SysStrUpper      Syscall = 0xA1
	SysStrSplit      Syscall = 0xA2
	SysStrJoin       Syscall = 0xA3
	SysStrReplace    Syscall = 0xA4
	SysStrFind       Syscall = 0xA5 // also .cardinality on sets
	SysStrStartswith Syscall = 0xA6
	SysStrStrip      Syscall = 0xA7
	SysAssign        Syscall = 0xA8
	SysFront         Syscall = 0xA9
	SysBack          Syscall = 0xAA
	SysBegin         Syscall = 0xAB
	SysEnd           Syscall = 0xAC
	SysRBegin        Syscall = 0xAD
	SysREnd          Syscall = 0xAE
	SysEmpty         Syscall = 0xAF

	SysSetAdd   Syscall = 0x91
	SysDictNew  Syscall = 0x92
	SysDictGet  Syscall = 0x94
	SysSeqNew   Syscall = 0x95
	SysPushBack Syscall = 0x96
	SysPopFront Syscall = 0x97
	SysPopBack  Syscall = 0x98
	SysSetNew   Syscall = 0x90

	SysMaxSize     Syscall = 0xB4
	SysClear       Syscall = 0xB5
	SysInsert      Syscall = 0xB6
	SysErase       Syscall = 0xB7
	SysPushFront   Syscall = 0xB8
	SysPrependRange Syscall = 0xB9
	SysResize      Syscall = 0xBB
	SysSwap        Syscall = 0xBC
	SysSort        Syscall = 0xBD
	SysUnique      Syscall = 0xBE
	SysReverse     Syscall = 0xBF
	SysAppendRange Syscall = 0xBA

	SysSqrt  Syscall = 0xB0
	SysAbs   Syscall = 0xB1
	SysMathPi Syscall = 0xB2
	SysMathE Syscall = 0xB3

	SysExit     Syscall = 0xC0
	SysSystem   Syscall = 0xC1
	SysSleep    Syscall = 0xC2
	SysMerge    Syscall = 0xC3
	SysSplice   Syscall = 0xC4
	SysRemove   Syscall = 0xC5
	SysRemoveIf Syscall = 0xC6
	SysEquals   Syscall = 0xC7
	SysCompare  Syscall = 0xC8
	SysReversed Syscall = 0xC9
	SysRandom   Syscall = 0xCA

	SysMalloc  Syscall = 0xD0
	SysCalloc  Syscall = 0xD1
	SysRealloc Syscall = 0xD2
	SysFree    Syscall = 0xD3
	SysAtof    Syscall = 0xD4
	SysAtoi    Syscall = 0xD5
	SysAtol    Syscall = 0xD6
	SysAtoll   Syscall = 0xD7
	SysStrtod  Syscall = 0xD8
	SysStrtof  Syscall = 0xD9
	SysStrtol  Syscall = 0xDA
	SysStrtold Syscall = 0xDB
	SysStrtoul Syscall = 0xDC
	SysStrtoull Syscall = 0xDD
	SysStrtoll  Syscall = 0xDE

	SysAbort      Syscall = 0xE0
	SysExitUnderscore Syscall = 0xE1
	SysAtexit     Syscall = 0xE2
	SysAtQuickExit Syscall = 0xE3
	SysQuickExit  Syscall = 0xE4
	SysGetenv     Syscall = 0xE5
	SysBsearch    Syscall = 0xE6
	SysQsort      Syscall = 0xE7
	SysRange      Syscall = 0xE8
	SysMin        Syscall = 0xE9
	SysMax        Syscall = 0xEA
	SysSum        Syscall = 0xEB
	SysSorted     Syscall = 0xEC
	SysInt        Syscall = 0xED
	SysFloat      Syscall = 0xEE
	SysStr        Syscall = 0xEF

	SysBool      Syscall = 0xF0
	SysTuple     Syscall = 0xF1
	SysChr       Syscall = 0xF2
	SysOrd       Syscall = 0xF3
	SysRound     Syscall = 0xF4
	SysDivmod    Syscall = 0xF5
	SysPow       Syscall = 0xF6
	SysAll       Syscall = 0xF7
	SysAny       Syscall = 0xF8
	SysRepr      Syscall = 0xF9
	SysBin       Syscall = 0xFA
	SysHex       Syscall = 0xFB
	SysOct       Syscall = 0xFC
	SysInput     Syscall = 0xFD
	SysZip       Syscall = 0xFE
	SysEnumerate Syscall = 0xFF
)

// methodSyscall is one entry in the suffix-matched method dispatch table: a
// call like `items.push_back(x)` is recognized by trimming the matching
// suffix off the callee identifier (to find the receiver to load), and the
// syscall is preceded by a push of the actual argument count, not a fixed
// value from this table.
type methodSyscall struct {
	suffix string
	id     Syscall
}

// methodSyscalls is ordered longest-suffix-first so overlapping spellings
// (emplace_front vs emplace, push_front vs push) resolve to the intended
// entry. Transcribed from the original compiler's callMethod chain.
var methodSyscalls = []methodSyscall{
	{".emplace_front", SysPushFront},
	{".prepend_range", SysPrependRange},
	{".push_front", SysPushFront},
	{".append_range", SysAppendRange},
	{".emplace_back", SysPushBack},
	{".cardinality", SysStrFind},
	{".startswith", SysStrStartswith},
	{".remove_if", SysRemoveIf},
	{".pop_front", SysPopFront},
	{".push_back", SysPushBack},
	{".max_size", SysMaxSize},
	{".compare", SysCompare},
	{".crbegin", SysRBegin},
	{".rbegin", SysRBegin},
	{".equals", SysEquals},
	{".reverse", SysReverse},
	{".replace", SysStrReplace},
	{".assign", SysAssign},
	{".insert", SysInsert},
	{".splice", SysSplice},
	{".remove", SysRemove},
	{".resize", SysResize},
	{".unique", SysUnique},
	{".cbegin", SysBegin},
	{".begin", SysBegin},
	{".crend", SysREnd},
	{".rend", SysREnd},
	{".front", SysFront},
	{".empty", SysEmpty},
	{".clear", SysClear},
	{".lower", SysStrLower},
	{".upper", SysStrUpper},
	{".split", SysStrSplit},
	{".strip", SysStrStrip},
	{".merge", SysMerge},
	{".erase", SysErase},
	{".swap", SysSwap},
	{".sort", SysSort},
	{".back", SysBack},
	{".find", SysStrFind},
	{".join", SysStrJoin},
	{".cend", SysEnd},
	{".end", SysEnd},
	{".push", SysPushBack},
	{".size", SysLen},
	{".pop_back", SysPopBack},
	{".pop", SysPopFront},
	{".add", SysSetAdd},
	{".get", SysDictGet},
}

// callSyscalls maps a bare call-expression name directly to a syscall id,
// transcribed from the same dispatch chain: every one of these is preceded
// by a push of the argument count, just like the suffix-matched methods.
// Names not listed here fall back to an ordinary mangled-name CALL.
var callSyscalls = map[string]Syscall{
	"fopen": SysFopen, "open": SysFopen,
	"fprintf": SysFprintf,
	"fclose":  SysFclose,
	"printf":  SysPrintf, "print": SysPrintf,
	"ctime":  SysCtime,
	"len":    SysLen, "strlen": SysLen,
	"puts": SysPuts,
	"range": SysRange, "min": SysMin, "max": SysMax, "sum": SysSum,
	"sorted": SysSorted, "int": SysInt, "Integer": SysInt,
	"float": SysFloat, "Double": SysFloat,
	"str": SysStr, "String": SysStr,
	"bool": SysBool, "tuple": SysTuple, "chr": SysChr, "ord": SysOrd,
	"round": SysRound, "divmod": SysDivmod, "pow": SysPow,
	"all": SysAll, "any": SysAny, "repr": SysRepr,
	"bin": SysBin, "hex": SysHex, "oct": SysOct,
	"input": SysInput, "zip": SysZip, "enumerate": SysEnumerate,
	"reversed": SysReversed,
	"__random": SysRandom,
	"malloc":   SysMalloc, "calloc": SysCalloc, "realloc": SysRealloc, "free": SysFree,
	"atof": SysAtof, "atoi": SysAtoi, "atol": SysAtol, "atoll": SysAtoll,
	"strtod": SysStrtod, "strtof": SysStrtof, "strtol": SysStrtol,
	"strtold": SysStrtold, "strtoul": SysStrtoul, "strtoull": SysStrtoull, "strtoll": SysStrtoll,
	"abort": SysAbort, "_Exit": SysExitUnderscore,
	"atexit": SysAtexit, "at_quick_exit": SysAtQuickExit, "quick_exit": SysQuickExit,
	"getenv": SysGetenv,
	"exit":   SysExit, "system": SysSystem,
	"bsearch": SysBsearch, "qsort": SysQsort,
}

// noCountSyscalls are emitted with no argument-count push ahead of the
// syscall id, unlike callSyscalls and the suffix-matched methods above. The
// original compiler special-cases exactly these: math.sqrt, abs, sys.exit,
// os.system, time.sleep, and the set/dict/deque/list constructors.
var noCountSyscalls = map[string]Syscall{
	"math.sqrt":  SysSqrt,
	"abs":        SysAbs,
	"sys.exit":   SysExit,
	"os.system":  SysSystem,
	"time.sleep": SysSleep,
	"set":        SysSetNew, "dict": SysDictNew,
	"deque": SysSeqNew, "list": SysSeqNew,
}

// dottedConstants maps a dotted name directly to a syscall id with no call
// syntax at all: `math.pi` and `math.e` load as if they were ordinary
// values.
var dottedConstants = map[string]Syscall{
	"math.pi": SysMathPi,
	"math.e":  SysMathE,
}
