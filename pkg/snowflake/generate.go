package snowflake

import (
	"errors"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once

	errInvalidMachineID   = errors.New("invalid snowflake machine id")
	errInvalidDataCenter  = errors.New("invalid snowflake datacenter id")
	errGeneratorUninitial = errors.New("snowflake generator is not initialized")
)

// Init 以 datacenter(高 5 位) + machine(低 5 位) 组合节点号，进程内只生效一次
func Init(machineID, dataCenterID int64) error {
	var initErr error

	once.Do(func() {
		if machineID < 0 || machineID > 31 {
			initErr = errInvalidMachineID
			return
		}
		if dataCenterID < 0 || dataCenterID > 31 {
			initErr = errInvalidDataCenter
			return
		}
		nodeID := (dataCenterID << 5) | machineID

		var err error
		node, err = snowflake.NewNode(nodeID)
		if err != nil {
			initErr = err
			return
		}
	})

	return initErr
}

func NextID() (int64, error) {
	if node == nil {
		return 0, errGeneratorUninitial
	}

	return node.Generate().Int64(), nil
}

// NextPublicID 带前缀的对外 ID，例如 clinic_1790043562938286080
func NextPublicID(prefix string) (string, error) {
	id, err := NextID()
	if err != nil {
		return "", err
	}
	return prefix + "_" + strconv.FormatInt(id, 10), nil
}
