package flash

import "os"

const flagsRDWR = os.O_RDWR
