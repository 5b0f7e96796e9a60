package main

import (
	"context"
	"fmt"

	"github.com/riftrewind/riftrewind/internal/appid"
)

func main() {
	id, err := appid.Get(context.Background())
	if err != nil {
		fmt.Println("err:", err)
		return
	}
	fmt.Printf("%+v\n", *id)
}
