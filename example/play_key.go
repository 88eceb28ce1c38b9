package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"tonelock"
)

func main() {
	// 1. 配置播放参数
	sampleRate := 44100
	duration := 2 * time.Second
	deviceName := "" // 空表示系统默认播放设备

	cfg := tonelock.DefaultConfig()
	fmt.Printf("Key tones: %v Hz\n", cfg.Unlock.Targets)
	fmt.Println("Type a tone list (e.g. 1000:4,3000:2,4000) or press Enter to play the key.")
	fmt.Println("Type 'exit' or 'quit' to stop.")

	// 2. 循环读取控制台输入
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if strings.ToLower(input) == "exit" || strings.ToLower(input) == "quit" {
			break
		}

		tones := tonelock.KeyTones(cfg.Unlock.Targets)
		if input != "" {
			var err error
			if tones, err = tonelock.ParseTones(input); err != nil {
				log.Printf("Error: %v\n", err)
				continue
			}
		}

		// 3. 生成并播放
		signal := tonelock.GenerateKey(tones, sampleRate, duration)
		samples := make([]float32, len(signal))
		for i, v := range signal {
			samples[i] = float32(v)
		}

		fmt.Printf("Playing %d tone(s) for %s\n", len(tones), duration)
		if err := tonelock.PlaySamples(context.Background(), sampleRate, samples, deviceName); err != nil {
			log.Printf("Error playing key: %v\n", err)
		}
	}

	fmt.Println("Bye.")
}
