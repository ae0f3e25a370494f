package storage

import (
	"MediPay/storage/database"
	"MediPay/storage/mq"
	"MediPay/storage/redis"
)

// 统一 init storage 层，顺序与 Close 相反

func Init() error {
	if err := database.Init(); err != nil {
		return err
	}

	if err := redis.Init(); err != nil {
		return err
	}

	if err := mq.Init(); err != nil {
		return err
	}

	return nil
}
