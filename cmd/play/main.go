// Command play runs an interactive game against the engine on the
// terminal. Moves are entered in SAN or UCI; "quit" resigns.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/notnil/chess"

	"github.com/maxts0gt/tacticore/game"
	"github.com/maxts0gt/tacticore/search"
)

var (
	fenFlag     = flag.String("fen", "", "starting position, standard start when empty")
	depthFlag   = flag.Int("depth", 3, "engine search depth in plies")
	timeoutFlag = flag.Duration("timeout", 10*time.Second, "per-move engine deadline")
	colorFlag   = flag.String("color", "white", "human side, white or black")
)

func main() {
	flag.Parse()

	pos := game.Starting()
	if *fenFlag != "" {
		parsed, err := game.ParseFEN(*fenFlag)
		if err != nil {
			log.Fatalf("bad -fen: %v", err)
		}
		pos = parsed
	}

	var human chess.Color
	switch strings.ToLower(*colorFlag) {
	case "white", "w":
		human = chess.White
	case "black", "b":
		human = chess.Black
	default:
		log.Fatalf("bad -color %q: want white or black", *colorFlag)
	}

	eng := search.New(search.Config{MaxDepth: *depthFlag, AdaptiveDepth: true})
	in := bufio.NewScanner(os.Stdin)

	for !pos.Terminal() {
		fmt.Println(pos.Draw())
		if pos.Turn() == human {
			if !humanMove(pos, in) {
				fmt.Println("resigned")
				return
			}
			continue
		}
		engineMove(pos, eng)
	}

	fmt.Println(pos.Draw())
	switch {
	case pos.IsCheckmate():
		fmt.Printf("checkmate, %s wins\n", pos.Turn().Other().Name())
	default:
		fmt.Println("draw")
	}
}

func humanMove(pos *game.Position, in *bufio.Scanner) bool {
	for {
		fmt.Printf("%s> ", pos.Turn().Name())
		if !in.Scan() {
			return false
		}
		text := strings.TrimSpace(in.Text())
		if text == "quit" || text == "resign" {
			return false
		}
		m, err := pos.DecodeMove(text)
		if err != nil {
			fmt.Printf("illegal move %q\n", text)
			continue
		}
		pos.Apply(m)
		return true
	}
}

func engineMove(pos *game.Position, eng *search.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	res := eng.Search(ctx, pos, 0)
	if res.BestMove == nil {
		return
	}
	fmt.Printf("engine plays %s (score %d, depth %d, %d nodes)\n",
		pos.EncodeSAN(res.BestMove), res.Score, res.Depth, res.Nodes)
	pos.Apply(res.BestMove)
}
